package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"chat-core/services"
	"chat-core/sink"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameSize   = 64 * 1024
	deliverTimeout = 5 * time.Second
)

// connection ties one WebSocket to its ChatSession and ChannelSink.
// readPump is the only goroutine invoking session operations, which
// keeps the per-connection ordering trivially correct.
type connection struct {
	log     *slog.Logger
	conn    *websocket.Conn
	session *services.ChatSession
	sink    *sink.ChannelSink
}

func newConnection(log *slog.Logger, wsConn *websocket.Conn, session *services.ChatSession, channelSink *sink.ChannelSink) *connection {
	wsConn.SetReadLimit(maxFrameSize)
	return &connection{
		log:     log.With("conn_id", session.ConnID()),
		conn:    wsConn,
		session: session,
		sink:    channelSink,
	}
}

// run blocks until the connection dies, then tears the session down.
func (c *connection) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)

	disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer disconnectCancel()
	if err := c.session.Disconnect(disconnectCtx); err != nil {
		c.log.Warn("Disconnect failed", "error", err)
	}
}

func (c *connection) readPump(ctx context.Context) {
	defer func() { _ = c.conn.Close() }()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Read failed", "error", err)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

// handleFrame decodes and dispatches one inbound frame. Rejected
// operations already sent the sender an error notice, so failures here
// only need logging.
func (c *connection) handleFrame(ctx context.Context, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Warn("Malformed frame", "error", err)
		return
	}

	switch frame.Type {
	case TypeJoin:
		if _, err := c.session.Join(ctx, frame.Username); err != nil {
			c.log.Info("Join rejected", "username", frame.Username, "error", err)
		}
	case TypeSendMessage:
		err := c.session.Send(ctx, frame.Content, frame.Attachment.toDomain(), frame.IsStamp)
		if err != nil {
			c.log.Info("Message rejected", "error", err)
		}
	case TypeSearchMessages:
		if err := c.session.Search(ctx, frame.Query); err != nil {
			c.log.Info("Search rejected", "error", err)
		}
	default:
		c.log.Warn("Unknown frame type", "type", frame.Type)
	}
}

func (c *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env := <-c.sink.Events:
			payload, err := EncodeEnvelope(env)
			if err != nil {
				c.log.Warn("Encoding failed", "event", env.Event.EventName(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
