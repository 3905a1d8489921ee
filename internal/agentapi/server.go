// Package agentapi exposes the agent's message API on a loopback
// listener. Peers (the ctl tool, a live browser session) send the same
// message envelope over POST /message and watch state changes over SSE.
package agentapi

import (
	"bufio"
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/valyala/fasthttp"

	"github.com/orthrauku-dev/yt-sus/internal/coordinator"
	"github.com/orthrauku-dev/yt-sus/internal/hub"
	"github.com/orthrauku-dev/yt-sus/internal/middleware"
	"github.com/orthrauku-dev/yt-sus/internal/model"
)

type Server struct {
	dispatch *coordinator.Dispatcher
	hub      *hub.Hub
}

func NewServer(dispatch *coordinator.Dispatcher, h *hub.Hub) *Server {
	return &Server{dispatch: dispatch, hub: h}
}

// App builds the Fiber app with all agent routes mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "ytsus agent",
	})

	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/message", s.handleMessage)
	app.Get("/events", s.handleEvents)

	return app
}

func (s *Server) handleMessage(c fiber.Ctx) error {
	var msg model.Message
	if err := json.Unmarshal(c.Body(), &msg); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}

	reply := s.dispatch.Dispatch(c.Context(), msg)
	status := fiber.StatusOK
	if !reply.Success {
		// The reply envelope carries the error; a failed action is
		// still a well-formed exchange.
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(reply)
}

// handleEvents streams coordinator broadcasts as server-sent events.
// The subscription ends when the peer goes away.
func (s *Server) handleEvents(c fiber.Ctx) error {
	events, cancel := s.hub.Subscribe()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.RequestCtx().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.WriteString("event: " + string(ev.Type) + "\ndata: " + string(data) + "\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
