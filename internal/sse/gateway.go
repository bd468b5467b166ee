// internal/sse/gateway.go
package sse

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultIdleTimeout is how long a client may receive nothing before the
	// sweep evicts it. The 30s heartbeat keeps healthy connections well under
	// this, so eviction only fires for dead connections (4 missed pings).
	DefaultIdleTimeout = 2 * time.Minute

	// DefaultSweepInterval is how often the reaper compares lastSeen stamps.
	DefaultSweepInterval = 15 * time.Second

	clientBuffer = 64
)

// Event is one server-sent event.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	id       string
	role     string
	ch       chan Event
	lastSeen time.Time
}

// Gateway keeps the registry of live subscribers and routes published
// events without persisting them. The registry is process-wide mutable
// state mutated from multiple goroutines, so every access holds the mutex.
type Gateway struct {
	mu      sync.Mutex
	clients map[string]*client
	closed  bool

	idleTimeout   time.Duration
	sweepInterval time.Duration
	done          chan struct{}

	logger *zap.Logger
}

// NewGateway builds a gateway with the production idle policy and starts
// its sweep goroutine.
func NewGateway(logger *zap.Logger) *Gateway {
	return NewGatewayWithPolicy(logger, DefaultIdleTimeout, DefaultSweepInterval)
}

// NewGatewayWithPolicy builds a gateway with an explicit idle timeout and
// sweep interval.
func NewGatewayWithPolicy(logger *zap.Logger, idleTimeout, sweepInterval time.Duration) *Gateway {
	g := &Gateway{
		clients:       make(map[string]*client),
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
		logger:        logger,
	}
	go g.sweep()
	return g
}

// AddClient registers a subscriber and returns the channel the transport
// layer drains to the connection. Re-adding an existing id replaces the old
// subscription (its channel is closed).
func (g *Gateway) AddClient(id, role string) <-chan Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.clients[id]; ok {
		close(old.ch)
	}

	c := &client{
		id:       id,
		role:     role,
		ch:       make(chan Event, clientBuffer),
		lastSeen: time.Now(),
	}
	g.clients[id] = c

	g.logger.Info("sse client connected",
		zap.String("client_id", id),
		zap.String("role", role),
		zap.Int("total", len(g.clients)),
	)
	return c.ch
}

// RemoveClient closes a subscriber's channel and drops it from the
// registry. Removing an unknown id is a no-op.
func (g *Gateway) RemoveClient(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(id)
}

// Release removes the registration only while ch is still its live
// channel. A transport whose registration was replaced by a reconnect
// under the same id must not tear down the replacement on its way out.
func (g *Gateway) Release(id string, ch <-chan Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.clients[id]
	if !ok || (<-chan Event)(c.ch) != ch {
		return
	}
	g.removeLocked(id)
}

// EmitToAll pushes an event to every subscriber.
func (g *Gateway) EmitToAll(event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.clients {
		g.sendLocked(c, event)
	}
}

// EmitToRole pushes an event to every subscriber registered with the role.
func (g *Gateway) EmitToRole(role string, event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.clients {
		if c.role == role {
			g.sendLocked(c, event)
		}
	}
}

// EmitToUser pushes an event to one subscriber by id.
func (g *Gateway) EmitToUser(id string, event Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[id]; ok {
		g.sendLocked(c, event)
	}
}

// ClientCount returns the number of live subscribers.
func (g *Gateway) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// Shutdown force-removes every subscriber and stops the sweep. No dangling
// goroutines or channels remain afterwards.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	close(g.done)

	for id := range g.clients {
		g.removeLocked(id)
	}
}

// sendLocked delivers an event and refreshes the subscriber's idle stamp.
// A subscriber that cannot keep up has its event dropped rather than
// blocking every other delivery.
func (g *Gateway) sendLocked(c *client, event Event) {
	c.lastSeen = time.Now()

	select {
	case c.ch <- event:
	default:
		g.logger.Warn("sse client buffer full, dropping event",
			zap.String("client_id", c.id),
			zap.String("event", event.Event),
		)
	}
}

func (g *Gateway) removeLocked(id string) {
	c, ok := g.clients[id]
	if !ok {
		return
	}
	close(c.ch)
	delete(g.clients, id)
}

// sweep periodically evicts subscribers that received nothing for longer
// than the idle timeout. One ticker for the whole registry replaces a
// timer per client.
func (g *Gateway) sweep() {
	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case now := <-ticker.C:
			g.evictIdle(now)
		}
	}
}

func (g *Gateway) evictIdle(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, c := range g.clients {
		if idle := now.Sub(c.lastSeen); idle > g.idleTimeout {
			g.logger.Warn("sse client inactive, removing",
				zap.String("client_id", id),
				zap.Duration("idle", idle),
			)
			g.removeLocked(id)
		}
	}
}
