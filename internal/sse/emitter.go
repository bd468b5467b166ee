// internal/sse/emitter.go
package sse

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultHeartbeatInterval is how often a ping is broadcast to all clients.
const DefaultHeartbeatInterval = 30 * time.Second

// Well-known event names.
const (
	EventPing              = "ping"
	EventSuperAdminCreated = "superadmin.created"
)

// Emitter is the publish facade over the Gateway. It drives the heartbeat
// that keeps healthy connections out of the gateway's idle sweep and mirrors
// every published event onto a global feed for subscribe-to-everything
// endpoints.
type Emitter struct {
	gateway *Gateway
	logger  *zap.Logger

	mu     sync.Mutex
	feeds  map[uint64]chan Event
	nextID uint64
	closed bool

	done chan struct{}
}

// NewEmitter builds an emitter with the production heartbeat interval.
func NewEmitter(gateway *Gateway, logger *zap.Logger) *Emitter {
	return NewEmitterWithInterval(gateway, logger, DefaultHeartbeatInterval)
}

// NewEmitterWithInterval builds an emitter with an explicit heartbeat
// interval and starts the heartbeat goroutine.
func NewEmitterWithInterval(gateway *Gateway, logger *zap.Logger, heartbeat time.Duration) *Emitter {
	e := &Emitter{
		gateway: gateway,
		logger:  logger,
		feeds:   make(map[uint64]chan Event),
		done:    make(chan struct{}),
	}
	go e.heartbeat(heartbeat)
	return e
}

// EmitToAll publishes an event to every connected client.
func (e *Emitter) EmitToAll(event string, data interface{}) {
	e.logger.Debug("emitting to all clients", zap.String("event", event))
	ev := Event{Event: event, Data: data}
	e.gateway.EmitToAll(ev)
	e.publish(ev)
}

// EmitToRole publishes an event to every client registered with the role.
func (e *Emitter) EmitToRole(role, event string, data interface{}) {
	e.logger.Debug("emitting to role", zap.String("role", role), zap.String("event", event))
	ev := Event{Event: event, Data: data}
	e.gateway.EmitToRole(role, ev)
	e.publish(ev)
}

// EmitToUser publishes an event to one client by id.
func (e *Emitter) EmitToUser(userID, event string, data interface{}) {
	ev := Event{Event: event, Data: data}
	e.gateway.EmitToUser(userID, ev)
	e.publish(ev)
}

// Subscribe returns a channel carrying every event the emitter publishes,
// plus a cancel func that must be called when the consumer goes away.
func (e *Emitter) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	ch := make(chan Event, clientBuffer)
	e.feeds[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if feed, ok := e.feeds[id]; ok {
			close(feed)
			delete(e.feeds, id)
		}
	}
	return ch, cancel
}

// Close stops the heartbeat and completes the global feed.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.done)

	for id, ch := range e.feeds {
		close(ch)
		delete(e.feeds, id)
	}
	e.logger.Info("sse emitter closed")
}

func (e *Emitter) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.feeds {
		select {
		case ch <- ev:
		default:
			// Slow feed consumers miss events rather than stall publishes.
		}
	}
}

func (e *Emitter) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case t := <-ticker.C:
			e.EmitToAll(EventPing, map[string]interface{}{
				"timestamp": t.UTC().Format(time.RFC3339),
			})
		}
	}
}
