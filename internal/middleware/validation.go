package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxChannelIDLen   = 64  // channels.channel_id VARCHAR(64)
	MaxChannelNameLen = 128 // channels.channel_name VARCHAR(128)
	MaxReasonLen      = 256 // channels.reason VARCHAR(256)
)

var (
	// ucIDRe matches canonical channel IDs: UC prefix plus 22 id chars.
	ucIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	// handleRe matches @handles.
	handleRe = regexp.MustCompile(`^@[A-Za-z0-9._-]{1,60}$`)
	// slugRe matches legacy custom-path slugs.
	slugRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,60}$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateChannelID accepts any of the identifier shapes a channel page
// can yield: a UC id, an @handle or a legacy slug. Handles are
// lowercased so the database key is canonical.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 64 characters"
	}
	switch {
	case ucIDRe.MatchString(id):
		return id, ""
	case strings.HasPrefix(id, "@"):
		if !handleRe.MatchString(id) {
			return "", "channelId handle contains invalid characters"
		}
		return strings.ToLower(id), ""
	case slugRe.MatchString(id):
		return id, ""
	default:
		return "", "channelId contains invalid characters"
	}
}

// ValidateChannelName trims and truncates a display name to DB limits.
// Empty is allowed; the server substitutes a placeholder.
func ValidateChannelName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > MaxChannelNameLen {
		name = name[:MaxChannelNameLen]
	}
	return name
}
