package server

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arbhalerao/sse-demo/internal/logging"
)

var ErrHubStopped = errors.New("server: hub stopped")

// Event is the wire shape pushed to every subscriber.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

type HubOptions struct {
	HeartbeatInterval time.Duration
	ClientBuffer      int
	Logger            *slog.Logger
}

type subscriber struct {
	id     string
	events chan Event
}

// Hub fans events out to stream subscribers. The subscriber set is owned by
// the Run goroutine; a subscriber whose buffer is full loses the event
// rather than stalling everyone else.
type Hub struct {
	heartbeat    time.Duration
	clientBuffer int
	logger       *slog.Logger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan Event
	done       chan struct{}

	clients     map[string]*subscriber
	clientCount atomic.Int64
	delivered   atomic.Uint64
	dropped     atomic.Uint64
}

type HubStats struct {
	Clients   int
	Delivered uint64
	Dropped   uint64
}

func NewHub(opts HubOptions) *Hub {
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}
	buffer := opts.ClientBuffer
	if buffer <= 0 {
		buffer = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		heartbeat:    heartbeat,
		clientBuffer: buffer,
		logger:       logger,
		register:     make(chan *subscriber),
		unregister:   make(chan *subscriber),
		broadcast:    make(chan Event, 64),
		done:         make(chan struct{}),
		clients:      make(map[string]*subscriber),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	tick := time.NewTicker(h.heartbeat)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			for id, sub := range h.clients {
				delete(h.clients, id)
				close(sub.events)
			}
			h.clientCount.Store(0)
			return ctx.Err()
		case sub := <-h.register:
			h.clients[sub.id] = sub
			h.clientCount.Store(int64(len(h.clients)))
			h.logger.Info("client connected", "client", sub.id, "clients", len(h.clients))
			h.deliver(sub, newEvent("welcome", "Connected to SSE server", nil))
		case sub := <-h.unregister:
			if _, ok := h.clients[sub.id]; ok {
				delete(h.clients, sub.id)
				close(sub.events)
				h.clientCount.Store(int64(len(h.clients)))
				h.logger.Info("client disconnected", "client", sub.id, "clients", len(h.clients))
			}
		case evt := <-h.broadcast:
			h.fanOut(evt)
		case <-tick.C:
			h.fanOut(newEvent("heartbeat", "Server heartbeat", nil))
		}
	}
}

// Publish queues evt for every current subscriber.
func (h *Hub) Publish(ctx context.Context, evt Event) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- evt:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Clients:   int(h.clientCount.Load()),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

func (h *Hub) subscribe(ctx context.Context) (*subscriber, error) {
	sub := &subscriber{id: uuid.NewString(), events: make(chan Event, h.clientBuffer)}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) unsubscribe(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

func (h *Hub) fanOut(evt Event) {
	for _, sub := range h.clients {
		h.deliver(sub, evt)
	}
}

func (h *Hub) deliver(sub *subscriber, evt Event) {
	select {
	case sub.events <- evt:
		h.delivered.Add(1)
	default:
		h.dropped.Add(1)
		h.logger.Warn("dropping event for slow client", "client", sub.id, "type", evt.Type)
	}
}

func newEvent(kind, message string, data any) Event {
	return Event{
		Type:      kind,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
