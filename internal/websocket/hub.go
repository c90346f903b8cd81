package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/model"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var ErrTooManyConnections = errors.New("too many connections")

// SnapshotProvider builds the INIT_ALL payload for a newly admitted client.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (dto.InitAllPayload, error)
}

// StatusProvider reports host and runtime status. Connections is filled in
// by the hub.
type StatusProvider interface {
	Snapshot() model.SystemInfo
}

type HubConfig struct {
	PingInterval    time.Duration
	MaxMissedPings  int
	StatusInterval  time.Duration
	MaxPayloadBytes int64
	MaxConnections  int
	SendBufferSize  int
	MessageRate     float64
	MessageBurst    int
}

func (c HubConfig) readLimit() int64 {
	if c.MaxPayloadBytes <= 0 {
		return 0
	}
	return 2 * c.MaxPayloadBytes
}

// Hub owns the set of live connections and the two periodic tasks
// (heartbeat sweep and status reporter).
type Hub struct {
	cfg HubConfig

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	snapshots SnapshotProvider
	status    StatusProvider
	logger    logger.ILogger
	metrics   *metrics.Realtime

	lifecycle sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewHub(cfg HubConfig, snapshots SnapshotProvider, status StatusProvider, log logger.ILogger, m *metrics.Realtime) *Hub {
	if cfg.MaxMissedPings < 1 {
		cfg.MaxMissedPings = 1
	}
	if cfg.SendBufferSize < minSendBuffer {
		cfg.SendBufferSize = minSendBuffer
	}
	return &Hub{
		cfg:       cfg,
		clients:   make(map[uuid.UUID]*Client),
		snapshots: snapshots,
		status:    status,
		logger:    log,
		metrics:   m,
		ctx:       context.Background(),
	}
}

// NewClient wraps conn in a connection record. The record is not live until
// it is admitted.
func (h *Hub) NewClient(conn Transport, remoteAddr string) *Client {
	c := &Client{
		id:          uuid.New(),
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		hub:         h,
		conn:        conn,
		send:        make(chan outbound, h.cfg.SendBufferSize),
		done:        make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
	if h.cfg.MessageRate > 0 {
		burst := h.cfg.MessageBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(h.cfg.MessageRate), burst)
	}
	c.liveness.Store(int32(LivenessAlive))
	return c
}

// Admit registers c and queues INIT_ALL followed by SYSTEM_INFO for it. On
// error c is not registered and the caller must terminate it.
func (h *Hub) Admit(ctx context.Context, c *Client) error {
	h.mu.Lock()
	if h.cfg.MaxConnections > 0 && len(h.clients) >= h.cfg.MaxConnections {
		h.mu.Unlock()
		h.logger.Warn("Hub", "Connection rejected, registry full", map[string]interface{}{
			"remote_addr": c.remoteAddr,
			"limit":       h.cfg.MaxConnections,
		})
		h.metrics.ObserveTermination("capacity")
		return ErrTooManyConnections
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetConnections(total)
	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"client_id":   c.id,
		"remote_addr": c.remoteAddr,
		"total":       total,
	})

	snapshot, err := h.snapshots.Snapshot(ctx)
	if err != nil {
		h.Remove(c)
		h.metrics.ObserveTermination("snapshot")
		return fmt.Errorf("build initial snapshot: %w", err)
	}
	if err := c.SendJSON(dto.OutboundMessage{Type: dto.KindInitAll, Data: snapshot}); err != nil {
		h.Remove(c)
		return err
	}
	if err := c.SendJSON(dto.OutboundMessage{Type: dto.KindSystemInfo, Data: h.SystemInfo()}); err != nil {
		h.Remove(c)
		return err
	}
	return nil
}

// Remove drops c from the live set. Removing an unknown client is a no-op.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	existing, ok := h.clients[c.id]
	if ok && existing == c {
		delete(h.clients, c.id)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.SetConnections(total)
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
			"client_id": c.id,
			"total":     total,
		})
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		list = append(list, c)
	}
	return list
}

// Broadcast sends message to every open connection. A client whose buffer is
// full is terminated.
func (h *Hub) Broadcast(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}

	for _, c := range h.snapshotClients() {
		if c.closed() {
			continue
		}
		err := c.enqueue(outbound{messageType: textMessage, data: data})
		if errors.Is(err, ErrSendBufferFull) {
			h.logger.Warn("Hub", "Client send buffer full, terminating", map[string]interface{}{"client_id": c.id})
			h.metrics.ObserveTermination("slow_consumer")
			h.Remove(c)
			c.terminate()
		}
	}
	h.metrics.ObserveBroadcast()
	return nil
}

// SystemInfo is the current status snapshot including the live connection count.
func (h *Hub) SystemInfo() model.SystemInfo {
	var info model.SystemInfo
	if h.status != nil {
		info = h.status.Snapshot()
	}
	info.Connections = h.Len()
	return info
}

// Context is cancelled by Stop. Dispatch runs under it.
func (h *Hub) Context() context.Context {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	return h.ctx
}

// Start launches the heartbeat sweep and the status reporter. Both stop when
// ctx is cancelled or Stop is called.
func (h *Hub) Start(ctx context.Context) {
	h.lifecycle.Lock()
	if h.cancel != nil {
		h.lifecycle.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	h.ctx = ctx
	h.cancel = cancel
	h.lifecycle.Unlock()

	h.wg.Add(2)
	go h.every(ctx, h.cfg.PingInterval, h.sweep)
	go h.every(ctx, h.cfg.StatusInterval, h.broadcastStatus)

	h.logger.Info("Hub", "Realtime tasks started", map[string]interface{}{
		"ping_interval":   h.cfg.PingInterval.String(),
		"status_interval": h.cfg.StatusInterval.String(),
	})
}

// Stop cancels both periodic tasks, waits for them and terminates every
// connection.
func (h *Hub) Stop() {
	h.lifecycle.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.lifecycle.Unlock()

	if cancel != nil {
		cancel()
		h.wg.Wait()
	}

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.terminate()
	}
	h.metrics.SetConnections(0)
	h.logger.Info("Hub", "Realtime hub stopped", map[string]interface{}{"terminated": len(clients)})
}

func (h *Hub) every(ctx context.Context, interval time.Duration, task func()) {
	defer h.wg.Done()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task()
		}
	}
}

// sweep is one heartbeat round: ALIVE clients become UNCONFIRMED and get a
// ping, UNCONFIRMED clients count a missed ping and are terminated once the
// limit is reached.
func (h *Hub) sweep() {
	for _, c := range h.snapshotClients() {
		if c.liveness.CompareAndSwap(int32(LivenessAlive), int32(LivenessUnconfirmed)) {
			h.pingOrDrop(c)
			continue
		}

		missed := int(c.missed.Add(1))
		if missed >= h.cfg.MaxMissedPings {
			h.logger.Warn("Hub", "Heartbeat timeout, terminating client", map[string]interface{}{
				"client_id": c.id,
				"missed":    missed,
			})
			h.metrics.ObserveTermination("heartbeat")
			h.Remove(c)
			c.terminate()
			continue
		}
		h.pingOrDrop(c)
	}
}

func (h *Hub) pingOrDrop(c *Client) {
	if err := c.ping(); err != nil && errors.Is(err, ErrSendBufferFull) {
		h.metrics.ObserveTermination("slow_consumer")
		h.Remove(c)
		c.terminate()
	}
}

func (h *Hub) broadcastStatus() {
	if h.Len() == 0 {
		return
	}
	if err := h.Broadcast(dto.OutboundMessage{Type: dto.KindSystemInfo, Data: h.SystemInfo()}); err != nil {
		h.logger.Error("Hub", "Status broadcast failed", map[string]interface{}{"error": err})
	}
}
