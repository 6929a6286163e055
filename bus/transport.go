package bus

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrClosed is returned by Post on a closed transport.
var ErrClosed = errors.New("transport closed")

// Transport moves encoded messages between contexts. Delivery is best
// effort and a transport never needs to echo a frame back to its sender.
type Transport interface {
	Post(ctx context.Context, frame []byte) error
	Messages() <-chan []byte
	Close() error
}

// DefaultBuffer is the per-member queue length of a Hub.
const DefaultBuffer = 64

// Hub is an in-process broadcast channel. Every joined member sees the
// frames the others post.
type Hub struct {
	mu      sync.Mutex
	members map[*HubTransport]struct{}
}

func NewHub() *Hub {
	return &Hub{members: map[*HubTransport]struct{}{}}
}

// Join adds a member. buffer < 1 uses DefaultBuffer.
func (h *Hub) Join(buffer int) *HubTransport {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	m := &HubTransport{hub: h, ch: make(chan []byte, buffer)}

	h.mu.Lock()
	h.members[m] = struct{}{}
	h.mu.Unlock()
	return m
}

func (h *Hub) broadcast(from *HubTransport, frame []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[from]; !ok {
		return ErrClosed
	}
	for m := range h.members {
		if m == from {
			continue
		}
		select {
		case m.ch <- slices.Clone(frame):
		default:
			// Slow member; the frame is lost for it.
		}
	}
	return nil
}

// HubTransport is one member of a Hub.
type HubTransport struct {
	hub  *Hub
	ch   chan []byte
	once sync.Once
}

var _ Transport = (*HubTransport)(nil)

func (m *HubTransport) Post(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.hub.broadcast(m, frame)
}

func (m *HubTransport) Messages() <-chan []byte { return m.ch }

func (m *HubTransport) Close() error {
	m.once.Do(func() {
		m.hub.mu.Lock()
		delete(m.hub.members, m)
		close(m.ch)
		m.hub.mu.Unlock()
	})
	return nil
}
