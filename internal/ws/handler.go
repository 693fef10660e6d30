package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Handler streams hub events. The optional "topic" query parameter
// ("review" or "training") restricts the stream.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		topic, _ := c.Locals("topic").(string)

		client := &Client{
			hub:   hub,
			conn:  c,
			topic: topic,
			send:  make(chan []byte, 256),
		}

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		switch topic := c.Query("topic"); topic {
		case "", "review", "training":
			c.Locals("topic", topic)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown topic "+topic)
		}
		return c.Next()
	}
}
