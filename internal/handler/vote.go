package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"github.com/orthrauku-dev/yt-sus/internal/middleware"
	"github.com/orthrauku-dev/yt-sus/internal/model"
	"github.com/orthrauku-dev/yt-sus/internal/service"
	"github.com/orthrauku-dev/yt-sus/pkg/hash"
)

type VoteHandler struct {
	svc  *service.VoteService
	salt string
}

func NewVoteHandler(svc *service.VoteService, salt string) *VoteHandler {
	return &VoteHandler{svc: svc, salt: salt}
}

// Submit handles POST /api/vote_channel
func (h *VoteHandler) Submit(c fiber.Ctx) error {
	var req model.VoteChannelRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}

	channelID, errMsg := middleware.ValidateChannelID(req.ChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ChannelID = channelID
	req.ChannelName = middleware.ValidateChannelName(req.ChannelName)

	// Votes are deduped on an anonymous voter identity; raw IP and UA
	// are never stored.
	voterHash := hash.HashVoter(c.IP(), c.Get("User-Agent"), h.salt)

	resp, err := h.svc.Submit(c.Context(), req, voterHash)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record vote")
	}

	if Metrics.VotesTotal != nil {
		Metrics.VotesTotal.Inc()
	}

	return c.JSON(resp)
}
