package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-nova/pkg/hub"
)

// handleStatus returns the agent state plus registered extras.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	body := fiber.Map{
		"status":   s.state,
		"messages": len(s.conversation),
	}
	extras := make(map[string]func() any, len(s.extras))
	for k, fn := range s.extras {
		extras[k] = fn
	}
	s.mu.RUnlock()

	body["clients"] = s.hub.ClientCount()
	for k, fn := range extras {
		body[k] = fn()
	}
	return c.JSON(body)
}

// handleConversation returns recent messages.
func (s *Server) handleConversation(c *fiber.Ctx) error {
	return c.JSON(s.Conversation())
}

// handleHealth returns 200 while every background task is healthy and
// 503 once one has failed.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.mu.RLock()
	h := s.health
	s.mu.RUnlock()

	if h == nil {
		return c.JSON(fiber.Map{"healthy": true})
	}
	healthy := h.Healthy()
	if !healthy {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(fiber.Map{
		"healthy": healthy,
		"tasks":   h.Snapshot(),
	})
}

// handleWS replays the current state and conversation, then streams
// events until the display disconnects.
func (s *Server) handleWS(conn *websocket.Conn) {
	client := hub.NewClient(s.hub, conn)

	s.mu.RLock()
	replay := []Event{{Event: "status_change", Data: StatusData{Status: s.state}}}
	for _, e := range s.conversation {
		replay = append(replay, Event{Event: "update_text", Data: TextData{Text: e.Text, Sender: e.Sender}})
	}
	s.mu.RUnlock()

	for _, ev := range replay {
		msg, err := hub.EncodeJSON(ev)
		if err != nil {
			continue
		}
		client.Send(msg)
	}
	client.Run()
}
