package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const realtimeHeartbeat = 30 * time.Second

// realtimeMessage is the websocket frame format: a typed envelope with a
// raw payload, mirroring the row store's change-notification protocol.
type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// changePayload carries one row change.
type changePayload struct {
	Table  string `json:"table"`
	Type   string `json:"type"`
	Record Row    `json:"record"`
}

// realtimeClient maintains one websocket connection and dispatches row
// changes to a subscriber. Delivery is at-most-once: a frame lost while
// reconnecting is simply not applied until the next change arrives.
type realtimeClient struct {
	baseURL string
	apiKey  string
	logger  *log.Logger
}

func newRealtimeClient(baseURL, apiKey string, logger *log.Logger) *realtimeClient {
	return &realtimeClient{baseURL: baseURL, apiKey: apiKey, logger: logger}
}

func (c *realtimeClient) wsURL() string {
	u := c.baseURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/realtime/v1/websocket?apikey=" + c.apiKey
}

// subscribe joins the table's topic and pumps matching changes into fn.
// The read loop exits when the connection drops, the context is cancelled,
// or the returned unsubscribe runs.
func (c *realtimeClient) subscribe(ctx context.Context, table string, filter Filter, fn func(Event)) (Unsubscribe, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}

	topic := "realtime:" + table
	join := realtimeMessage{Topic: topic, Event: "phx_join"}
	if len(filter) > 0 {
		payload, _ := json.Marshal(map[string]any{"filter": filter})
		join.Payload = payload
	}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("realtime join failed: %w", err)
	}

	done := make(chan struct{})

	// Heartbeat writer. The server drops silent connections.
	go func() {
		ticker := time.NewTicker(realtimeHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				beat := realtimeMessage{Topic: "phoenix", Event: "heartbeat"}
				if err := conn.WriteJSON(beat); err != nil {
					c.logger.Debug("realtime heartbeat failed", "err", err)
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// Read loop.
	go func() {
		defer conn.Close()
		for {
			var msg realtimeMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Debug("realtime connection closed", "err", err)
				}
				return
			}
			if msg.Topic != topic || msg.Event != "postgres_changes" {
				continue
			}

			var change changePayload
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				c.logger.Debug("realtime payload unreadable", "err", err)
				continue
			}
			if change.Record == nil || !matches(change.Record, filter) {
				continue
			}
			fn(Event{Table: table, Row: change.Record})
		}
	}()

	// Close once on either unsubscribe or context cancellation.
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
		}
		conn.Close()
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
