// internal/websocket/bridge.go
package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"neusentra-service/internal/sse"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Bridge delivers a gateway client's event stream over a websocket. The
// connection is outbound-only; inbound frames are drained just to service
// pings and detect the peer going away.
type Bridge struct {
	gateway *sse.Gateway
	logger  *zap.Logger
}

func NewBridge(gateway *sse.Gateway, logger *zap.Logger) *Bridge {
	return &Bridge{gateway: gateway, logger: logger}
}

// Serve upgrades the request and pumps the user's gateway channel into the
// socket until either side drops.
func (b *Bridge) Serve(w http.ResponseWriter, r *http.Request, userID, role string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	ch := b.gateway.AddClient(userID, role)

	go b.readPump(conn, userID, ch)
	b.writePump(conn, ch, userID)
	return nil
}

// readPump discards inbound frames; its job is keeping the read deadline
// fresh via pongs and noticing the close. Teardown releases only this
// connection's registration: a reconnect under the same id must survive
// the stale connection dying.
func (b *Bridge) readPump(conn *websocket.Conn, userID string, ch <-chan sse.Event) {
	defer func() {
		b.gateway.Release(userID, ch)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				b.logger.Warn("websocket read error",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (b *Bridge) writePump(conn *websocket.Conn, ch <-chan sse.Event, userID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(map[string]interface{}{
				"event": ev.Event,
				"data":  ev.Data,
			})
			if err != nil {
				b.logger.Error("event marshal failed",
					zap.String("user_id", userID),
					zap.Error(err),
				)
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
