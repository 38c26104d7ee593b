// handlers/ws.go - Event stream and background-sync signal intake
package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// PerformSyncSignal is the discriminator of the inbound background-sync
// frame. The frame carries no payload; receipt alone triggers a drain.
const PerformSyncSignal = "PERFORM_SYNC"

type wsFrame struct {
	Type string `json:"type"`
}

// WebSocketUpgrade gates /ws to real websocket requests.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketHandler serves one UI connection: outbound award/sync
// notifications, inbound PERFORM_SYNC signals.
func WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		subID, events := notifier.Subscribe()
		defer notifier.Unsubscribe(subID)

		done := make(chan struct{})

		// reader: sync signals and connection teardown
		go func() {
			defer close(done)
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var frame wsFrame
				if err := json.Unmarshal(data, &frame); err != nil {
					continue
				}
				if frame.Type == PerformSyncSignal {
					go syncService.HandleSignal(context.Background())
				}
			}
		}()

		// writer: push notifications until the client goes away
		for {
			select {
			case <-done:
				return
			case notification, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(fiber.Map{
					"type":         "notification",
					"notification": notification,
				}); err != nil {
					log.Printf("⚠️ WebSocket write failed: %v", err)
					return
				}
			}
		}
	})
}
