package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/orthrauku-dev/yt-sus/internal/middleware"
	"github.com/orthrauku-dev/yt-sus/internal/service"
)

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// ListFlagged handles GET /api/flagged_channels
func (h *ChannelHandler) ListFlagged(c fiber.Ctx) error {
	list, err := h.svc.ListFlagged(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch flagged channels")
	}

	c.Set("Cache-Control", "public, max-age=300")
	return c.JSON(list)
}

// Check handles GET /api/check_channel?channelId=
func (h *ChannelHandler) Check(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Query("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Check(c.Context(), channelID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check channel")
	}

	return c.JSON(resp)
}
