package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Hub fans events out to the subscribers of one topic. It keeps the most
// recent event so a subscriber joining between refreshes starts from the
// current board instead of waiting up to a full refresh interval.
type Hub struct {
	topic  string
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	latest []byte

	join      chan *Subscriber
	leave     chan *Subscriber
	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newHub(topic string, logger *slog.Logger) *Hub {
	return &Hub{
		topic:  topic,
		logger: logger.With(slog.String("topic", topic)),
		subs:   make(map[*Subscriber]struct{}),
		join:   make(chan *Subscriber),
		leave:  make(chan *Subscriber),
		events: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.join:
			h.mu.Lock()
			h.subs[sub] = struct{}{}
			if h.latest != nil {
				sub.send <- h.latest
			}
			count := len(h.subs)
			h.mu.Unlock()
			h.logger.Info("sse subscriber joined",
				slog.String("subscriber", sub.name),
				slog.Int("subscribers", count))

		case sub := <-h.leave:
			h.mu.Lock()
			if _, ok := h.subs[sub]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.subs, sub)
			close(sub.send)
			count := len(h.subs)
			h.mu.Unlock()
			h.logger.Info("sse subscriber left",
				slog.String("subscriber", sub.name),
				slog.Duration("connected_for", time.Since(sub.since)),
				slog.Int("subscribers", count))

		case msg := <-h.events:
			h.mu.Lock()
			h.latest = msg
			var slow []string
			for sub := range h.subs {
				select {
				case sub.send <- msg:
				default:
					slow = append(slow, sub.name)
				}
			}
			h.mu.Unlock()
			if len(slow) > 0 {
				// The next refresh supersedes the missed board
				h.logger.Warn("sse subscribers skipped an event", slog.Any("subscribers", slow))
			}

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subs {
				close(sub.send)
				delete(h.subs, sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Subscribe adds sub to the hub. It reports false once the hub is closed.
func (h *Hub) Subscribe(sub *Subscriber) bool {
	select {
	case h.join <- sub:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes sub and closes its channel
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.leave <- sub:
	case <-h.done:
	}
}

// Publish queues a named event for every subscriber. When the queue is full
// the event is dropped.
func (h *Hub) Publish(event, data string) {
	select {
	case h.events <- formatSSEMessage(event, data):
	case <-h.done:
	default:
		h.logger.Warn("sse event dropped, hub queue full", slog.String("event", event))
	}
}

// Latest returns the last published event in wire form, or nil
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// ClientCount returns the number of open streams
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func formatSSEMessage(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// HubManager owns one hub per topic. Topics are the all-boards stream plus
// one per metric, so hubs live until Close.
type HubManager struct {
	mu     sync.Mutex
	hubs   map[string]*Hub
	closed bool
	logger *slog.Logger
}

// NewHubManager creates an empty HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[string]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for topic, starting it on first use. After
// Close it returns a closed hub that refuses subscribers.
func (m *HubManager) GetOrCreateHub(topic string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		return hub
	}
	hub := newHub(topic, m.logger)
	if m.closed {
		hub.close()
		return hub
	}
	m.hubs[topic] = hub
	go hub.run()
	return hub
}

// GetHub returns the hub for topic, or nil if nothing has used it yet
func (m *HubManager) GetHub(topic string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[topic]
}

// Close stops every hub, ending all open streams
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for topic, hub := range m.hubs {
		hub.close()
		delete(m.hubs, topic)
	}
}
