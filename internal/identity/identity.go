// Package identity derives canonical channel identifiers from YouTube
// URLs and decides whether an identifier is in the flagged set.
package identity

import (
	"net/url"
	"strings"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

// ExtractChannelID resolves a canonical channel identifier from a URL or
// bare path. Recognized shapes, in priority order:
//
//	/@name       -> "@name"   (handle, kept with leading @)
//	/channel/ID  -> "ID"      (opaque platform id)
//	/c/name      -> "name"    (legacy custom slug)
//	/user/name   -> "name"    (legacy user slug)
//
// Anything else (watch pages, shorts, playlists) yields ok=false.
func ExtractChannelID(rawURL string) (string, bool) {
	path := rawURL
	if strings.Contains(rawURL, "://") || strings.HasPrefix(rawURL, "//") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", false
		}
		path = u.Path
	} else if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		path = rawURL[:i]
	}

	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", false
	}

	seg := path
	var rest string
	if i := strings.IndexByte(path, '/'); i >= 0 {
		seg, rest = path[:i], strings.TrimPrefix(path[i+1:], "/")
	}
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}

	switch {
	case strings.HasPrefix(seg, "@"):
		if len(seg) > 1 {
			return seg, true
		}
	case seg == "channel":
		if rest != "" {
			return rest, true
		}
	case seg == "c":
		if rest != "" {
			return rest, true
		}
	case seg == "user":
		if rest != "" {
			return rest, true
		}
	}
	return "", false
}

// IsHandle reports whether id is handle-shaped. Handles are matched
// case-insensitively everywhere; all other identifier kinds are exact.
func IsHandle(id string) bool {
	return strings.HasPrefix(id, "@")
}

// IsFlagged reports whether id matches any entry of the flagged set.
//
// Three checks are applied, because entries can be keyed inconsistently
// depending on which component inserted them: exact key match,
// case-insensitive key match for handle-shaped ids, and the same two
// rules against each entry's ID field (which may differ from its storage
// key due to merge history).
func IsFlagged(id string, set model.FlaggedSet) bool {
	if id == "" || len(set) == 0 {
		return false
	}
	if _, ok := set[id]; ok {
		return true
	}

	handle := IsHandle(id)
	lower := strings.ToLower(id)
	for key, entry := range set {
		if handle && strings.ToLower(key) == lower {
			return true
		}
		if entry.ID == id {
			return true
		}
		if handle && strings.ToLower(entry.ID) == lower {
			return true
		}
	}
	return false
}

// AnyFlagged applies IsFlagged across a candidate identifier set. One
// match is sufficient.
func AnyFlagged(ids []string, set model.FlaggedSet) (string, bool) {
	for _, id := range ids {
		if IsFlagged(id, set) {
			return id, true
		}
	}
	return "", false
}

// NormalizeName lowercases a display name and strips underscores and
// spaces. Sidebar items expose only a rendered name in some host
// layouts, so matching there is deliberately loose.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// NameMatches reports whether a rendered display name corresponds to a
// flagged entry, comparing normalized forms of the entry's handle, id
// and name.
func NameMatches(displayName string, set model.FlaggedSet) bool {
	norm := NormalizeName(displayName)
	if norm == "" {
		return false
	}
	for key, entry := range set {
		for _, cand := range []string{key, entry.ID, entry.Handle, entry.Name} {
			if cand == "" {
				continue
			}
			if NormalizeName(strings.TrimPrefix(cand, "@")) == norm {
				return true
			}
		}
	}
	return false
}

// Dedupe removes duplicate identifiers preserving order. Handles are
// deduped case-insensitively.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		k := id
		if IsHandle(id) {
			k = strings.ToLower(id)
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, id)
	}
	return out
}
