// Package fanout pushes newly created comments, replies and chat messages to
// every session joined to the matching group. Join, Leave and Publish are
// its only primitives; the websocket transport in client.go is one consumer.
package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onechurch/backend/pkg/result"
)

const (
	// DefaultSendBuffer is the per-session queue length.
	DefaultSendBuffer = 64
	bridgeTimeout     = 5 * time.Second
)

// Bridge relays publishes between hub instances, e.g. over Redis pub/sub.
// When set, Publish goes only through the bridge and local delivery happens
// when the bridge echoes the payload back, so every instance delivers once.
type Bridge interface {
	Publish(ctx context.Context, group string, payload []byte) error
	Subscribe(group string, deliver func(payload []byte)) (cancel func(), err error)
}

// Session is one subscriber joined to one group.
type Session struct {
	ID    string
	Group string
	send  chan []byte
}

// Messages yields payloads in publish order. It is closed on Leave.
func (s *Session) Messages() <-chan []byte { return s.send }

// group is one generation of a named group. ready closes once its bridge
// subscription is settled; closed marks a generation that was torn down and
// must not receive payloads again.
type group struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cancel   func()
	ready    chan struct{}
	err      error
	closed   bool
}

func newGroup() *group {
	return &group{sessions: make(map[string]*Session), ready: make(chan struct{})}
}

// Hub maintains group name -> set of sessions.
type Hub struct {
	groups     map[string]*group
	mu         sync.RWMutex
	sendBuffer int
	bridge     Bridge
	logger     *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-session queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithBridge routes publishes through b.
func WithBridge(b Bridge) Option {
	return func(h *Hub) { h.bridge = b }
}

// NewHub creates a hub.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		groups:     make(map[string]*group),
		sendBuffer: DefaultSendBuffer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join adds a new session to name. The handshake is queued before the session
// becomes visible to publishers, so it is always the first payload. The first
// joiner of a group subscribes to the bridge without holding the hub lock;
// later joiners wait for that subscription to settle.
func (h *Hub) Join(name string) (*Session, error) {
	hello, err := json.Marshal(Handshake{
		Type:    TypeConnectionEstablished,
		Message: "Connected to " + name,
		Group:   name,
	})
	if err != nil {
		return nil, err
	}
	s := &Session{ID: uuid.New().String(), Group: name, send: make(chan []byte, h.sendBuffer)}
	s.send <- hello

	for {
		h.mu.Lock()
		g, found := h.groups[name]
		if !found {
			g = newGroup()
			h.groups[name] = g
		}
		h.mu.Unlock()
		if !found {
			h.subscribe(name, g)
		}
		<-g.ready
		if g.err != nil {
			return nil, g.err
		}

		g.mu.Lock()
		if g.closed {
			// emptied and torn down while we waited; start a new generation
			g.mu.Unlock()
			continue
		}
		g.sessions[s.ID] = s
		g.mu.Unlock()
		subscribers.WithLabelValues(kindOf(name)).Inc()
		h.logger.Debug("session joined group", zap.String("session_id", s.ID), zap.String("group", name))
		return s, nil
	}
}

// subscribe settles g's bridge subscription and releases its waiters.
func (h *Hub) subscribe(name string, g *group) {
	defer close(g.ready)
	if h.bridge == nil {
		return
	}
	cancel, err := h.bridge.Subscribe(name, func(payload []byte) { h.deliverTo(g, name, payload) })
	if err != nil {
		h.mu.Lock()
		if h.groups[name] == g {
			delete(h.groups, name)
		}
		h.mu.Unlock()
		g.mu.Lock()
		g.err = err
		g.closed = true
		g.mu.Unlock()
		return
	}
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
}

// Leave removes s and closes its channel. Calling it again is a no-op.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	g, ok := h.groups[s.Group]
	if !ok {
		h.mu.Unlock()
		return
	}
	g.mu.Lock()
	_, member := g.sessions[s.ID]
	if member {
		delete(g.sessions, s.ID)
		close(s.send)
	}
	empty := member && len(g.sessions) == 0
	var cancel func()
	if empty {
		g.closed = true
		cancel = g.cancel
		delete(h.groups, s.Group)
	}
	g.mu.Unlock()
	h.mu.Unlock()
	if !member {
		return
	}
	subscribers.WithLabelValues(kindOf(s.Group)).Dec()
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("session left group", zap.String("session_id", s.ID), zap.String("group", s.Group))
}

// Publish sends payload to every session currently joined to name. It never
// blocks on a slow session and never fails the caller: a session whose queue
// is full misses the payload, and a group without sessions is a no-op.
func (h *Hub) Publish(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal fanout payload", zap.String("group", name), zap.Error(err))
		return
	}
	published.WithLabelValues(kindOf(name)).Inc()
	if h.bridge != nil {
		ctx, cancel := context.WithTimeout(context.Background(), bridgeTimeout)
		defer cancel()
		err = h.bridge.Publish(ctx, name, data)
		if err == nil {
			return
		}
		h.logger.Warn("bridge publish failed, delivering locally", zap.String("group", name), zap.Error(err))
	}
	h.deliver(name, data)
}

func (h *Hub) deliver(name string, data []byte) {
	h.mu.RLock()
	g := h.groups[name]
	h.mu.RUnlock()
	if g != nil {
		h.deliverTo(g, name, data)
	}
}

// deliverTo holds the group lock for the whole pass, so publishes to one group
// reach each session in the order they were issued. A closed generation gets
// nothing, even when a later generation reuses its name.
func (h *Hub) deliverTo(g *group, name string, data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	kind := kindOf(name)
	for _, s := range g.sessions {
		select {
		case s.send <- data:
			deliveries.WithLabelValues(kind, "delivered").Inc()
		default:
			deliveries.WithLabelValues(kind, "dropped").Inc()
			h.logger.Debug("session queue full, payload dropped",
				zap.String("session_id", s.ID), zap.String("group", name),
				zap.String("kind", string(result.KindDeliveryFailure)))
		}
	}
}

// Subscribers returns the number of sessions joined to name.
func (h *Hub) Subscribers(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	g := h.groups[name]
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}
