package handlers

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/albertoelopez/AI-Debate-Arena/internal/models"
	"github.com/albertoelopez/AI-Debate-Arena/internal/services"
)

type WebSocketHandler struct {
	Arena  *services.ArenaService
	Logger *logrus.Logger
}

func NewWebSocketHandler(arena *services.ArenaService, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{Arena: arena, Logger: logger}
}

func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type wsClientMessage struct {
	Type     string `json:"type"`
	DebateID string `json:"debate_id"`
}

// HandleWebSocket serves one spectator connection. The client joins a
// debate by id and from then on receives every engine event as JSON.
// Engine notifications arrive on the run-loop goroutine while the read
// loop runs here, so writes go through a per-connection mutex.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	var writeMu sync.Mutex
	send := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return c.WriteJSON(v)
	}

	var joined *services.DebateEngine
	var listenerID int

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = send(fiber.Map{"type": "error", "message": "Invalid JSON"})
			continue
		}

		switch msg.Type {
		case "join":
			engine := h.Arena.Get(msg.DebateID)
			if engine == nil {
				_ = send(fiber.Map{"type": "error", "message": "Debate not found"})
				continue
			}
			if joined != nil {
				joined.RemoveListener(listenerID)
			}
			joined = engine
			listenerID = engine.AddListener(func(event models.Event) {
				if err := send(event); err != nil {
					h.Logger.Warnf("Failed to send event to client: %v", err)
				}
			})
			_ = send(fiber.Map{"type": "joined", "debate_id": msg.DebateID})
		case "ping":
			_ = send(fiber.Map{"type": "pong"})
		}
	}

	if joined != nil {
		joined.RemoveListener(listenerID)
	}
}
