package sse

import (
	"net/http"
	"time"
)

const (
	keepalivePeriod = 30 * time.Second
	subscriberQueue = 8
)

// Subscriber is one open event stream
type Subscriber struct {
	name  string
	send  chan []byte
	since time.Time
}

// NewSubscriber creates a subscriber identified by name in logs
func NewSubscriber(name string) *Subscriber {
	return &Subscriber{
		name:  name,
		send:  make(chan []byte, subscriberQueue),
		since: time.Now(),
	}
}

// Stream writes hub events to w as text/event-stream until the request ends
// or the hub closes. A "connected" event is sent first, followed by the
// hub's latest event if it has one.
func Stream(w http.ResponseWriter, r *http.Request, hub *Hub) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := NewSubscriber(r.RemoteAddr)
	if !hub.Subscribe(sub) {
		http.Error(w, "Stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	// The server write timeout would otherwise cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	if _, err := w.Write(formatSSEMessage("connected", `{"status":"connected"}`)); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepalivePeriod)
	defer keepalive.Stop()

	for {
		var out []byte
		select {
		case msg, ok := <-sub.send:
			if !ok {
				return
			}
			out = msg
		case <-keepalive.C:
			out = []byte(": keepalive\n\n")
		case <-r.Context().Done():
			return
		}
		if _, err := w.Write(out); err != nil {
			return
		}
		flusher.Flush()
	}
}
