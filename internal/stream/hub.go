// Package stream fans the synchronizer's market updates out to WebSocket
// subscribers as JSON event frames.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/poller"
)

// Feed is the slice of the synchronizer the hub consumes.
type Feed interface {
	Current() poller.State
	Subscribe() (<-chan poller.State, func())
}

// Hub manages WebSocket connections and fans broadcast frames out to them.
type Hub struct {
	feed       Feed
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	seq        atomic.Uint64
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewHub(feed Feed, logger *zap.Logger) *Hub {
	return &Hub{
		feed:       feed,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events and pumps the feed. Call in a goroutine;
// returns when the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	updates, cancel := h.feed.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stream hub shutting down")
			h.shutdown()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("stream client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("stream client unregistered", zap.String("connID", client.connID))

		case state := <-updates:
			for _, frame := range h.encodeState(state) {
				h.send(frame)
			}

		case frame := <-h.broadcast:
			h.send(frame)
		}
	}
}

// send delivers one frame to every client without blocking the hub loop.
// Clients whose buffers are full are scheduled for disconnect.
func (h *Hub) send(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			go h.drop(client)
		}
	}
}

// drop queues the client for unregistration, giving up once the hub loop
// has exited so stragglers never block on a channel nobody drains.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// encodeState turns one synchronizer update into wire frames. Each frame
// gets its own sequence number.
func (h *Hub) encodeState(state poller.State) [][]byte {
	var frames [][]byte

	if state.Status != nil {
		frame, err := encodeEvent(EventStatus, h.seq.Add(1), state.Status)
		if err != nil {
			h.logger.Error("encode status frame", zap.Error(err))
		} else {
			frames = append(frames, frame)
		}
	}
	if state.Snapshot != nil {
		frame, err := encodeEvent(EventSnapshot, h.seq.Add(1), state.Snapshot)
		if err != nil {
			h.logger.Error("encode snapshot frame", zap.Error(err))
		} else {
			frames = append(frames, frame)
		}
	}
	return frames
}

// ClientCount reports connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
