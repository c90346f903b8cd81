package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"studyroom-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	writeWait = 10 * time.Second

	minSendBuffer = 16

	textMessage = websocket.TextMessage
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// ConnectionError is a transport-level failure of one client.
type ConnectionError struct {
	ClientID uuid.UUID
	Op       string
	Err      error
}

func (e *ConnectionError) Error() string {
	return "connection " + e.ClientID.String() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Transport is the subset of *websocket.Conn the registry uses.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Sender is the connection a frame came from, as seen by message handlers.
type Sender interface {
	ID() uuid.UUID
	RemoteAddr() string
	SendJSON(message interface{}) error
}

// MessageHandler consumes inbound frames, one call per frame, on the
// connection's read goroutine.
type MessageHandler interface {
	HandleMessage(ctx context.Context, sender Sender, raw []byte)
}

type Liveness int32

const (
	LivenessAlive Liveness = iota
	LivenessUnconfirmed
)

func (l Liveness) String() string {
	if l == LivenessAlive {
		return "ALIVE"
	}
	return "UNCONFIRMED"
}

type outbound struct {
	messageType int
	data        []byte
}

// Client is the registry's record of one live connection. Only the write
// pump writes to the transport.
type Client struct {
	id          uuid.UUID
	remoteAddr  string
	connectedAt time.Time

	hub        *Hub
	conn       Transport
	send       chan outbound
	done       chan struct{}
	writerDone chan struct{}
	limiter    *rate.Limiter

	liveness  atomic.Int32
	missed    atomic.Int32
	closeOnce sync.Once
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

func (c *Client) Liveness() Liveness {
	return Liveness(c.liveness.Load())
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) enqueue(msg outbound) error {
	if c.closed() {
		return &ConnectionError{ClientID: c.id, Op: "send", Err: ErrConnectionClosed}
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return &ConnectionError{ClientID: c.id, Op: "send", Err: ErrSendBufferFull}
	}
}

// SendJSON queues message for this connection only.
func (c *Client) SendJSON(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.enqueue(outbound{messageType: textMessage, data: data})
}

func (c *Client) ping() error {
	return c.enqueue(outbound{messageType: websocket.PingMessage})
}

func (c *Client) markAlive() {
	c.liveness.Store(int32(LivenessAlive))
	c.missed.Store(0)
}

// terminate closes the transport without a close handshake. Safe to call
// from any goroutine, any number of times.
func (c *Client) terminate() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump pumps frames from the connection to the handler until the
// transport fails or is closed.
func (c *Client) readPump(ctx context.Context, handler MessageHandler) {
	defer func() {
		c.hub.Remove(c)
		c.terminate()
	}()

	c.conn.SetReadLimit(c.hub.cfg.readLimit())
	c.conn.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed() {
				fields := map[string]interface{}{
					"client_id":   c.id,
					"remote_addr": c.remoteAddr,
					"duration":    time.Since(c.connectedAt).Round(time.Millisecond).String(),
					"error":       err.Error(),
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.hub.logger.Warn("Client", "Connection dropped", fields)
				} else {
					c.hub.logger.Info("Client", "Client disconnected", fields)
				}
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			_ = c.SendJSON(dto.NewError("Rate limit exceeded"))
			continue
		}
		handler.HandleMessage(ctx, c, data)
	}
}

// writePump pumps queued messages and pings to the connection. writerDone
// is closed once it has stopped touching the transport.
func (c *Client) writePump() {
	defer func() {
		c.terminate()
		close(c.writerDone)
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if c.closed() {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msg.messageType, msg.data); err != nil {
				if !c.closed() {
					c.hub.logger.Warn("Client", "Write failed", map[string]interface{}{"client_id": c.id, "error": err.Error()})
				}
				return
			}
		}
	}
}
