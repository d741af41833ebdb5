// Package sse streams honeypot activity to monitoring clients as server-sent events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// WriteTimeout bounds a single frame write to a client connection.
	WriteTimeout = 2 * time.Second
	// ClientBuffer is the number of frames queued for a client before it is dropped as too slow.
	ClientBuffer = 64
)

// Event is one message on the stream.
type Event struct {
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
	Type string    `json:"type"`
}

// Client is a subscriber. Frames queue on its channel and only the connection's own
// handler goroutine writes them out.
type Client struct {
	Done      chan struct{}
	frames    chan []byte
	ID        string
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Done) })
}

// Broadcaster fans events out to the connected clients.
type Broadcaster struct {
	clients map[string]*Client
	now     func() time.Time
	mu      sync.RWMutex
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
		now:     time.Now,
	}
}

// AddClient registers a subscriber.
func (b *Broadcaster) AddClient() *Client {
	client := &Client{
		ID:     uuid.NewString(),
		Done:   make(chan struct{}),
		frames: make(chan []byte, ClientBuffer),
	}
	b.mu.Lock()
	b.clients[client.ID] = client
	n := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.ID).Int("totalClients", n).Msg("SSE client connected")
	return client
}

// RemoveClient unregisters a subscriber and closes its Done channel. Safe to call repeatedly.
func (b *Broadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	_, exists := b.clients[client.ID]
	delete(b.clients, client.ID)
	n := len(b.clients)
	b.mu.Unlock()

	client.close()
	if exists {
		log.Debug().Str("clientId", client.ID).Int("totalClients", n).Msg("SSE client removed")
	}
}

// Publish queues a typed event for every client. It never blocks: a client whose queue is full
// is disconnected.
func (b *Broadcaster) Publish(eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Time: b.now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to marshal SSE event")
		return
	}
	frame := formatFrame(eventType, payload)

	var slow []*Client
	b.mu.RLock()
	for _, client := range b.clients {
		select {
		case client.frames <- frame:
		default:
			slow = append(slow, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range slow {
		log.Warn().Str("clientId", client.ID).Int("buffer", ClientBuffer).Msg("SSE client too slow, disconnecting")
		b.RemoveClient(client)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// HandleSSE serves one event stream until the request ends or the client is dropped.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := b.AddClient()
	defer b.RemoveClient(client)

	rc := http.NewResponseController(w)
	connected := formatFrame("connected", fmt.Appendf(nil, `{"type":"connected","clientId":%q}`, client.ID))
	if err := writeFrame(w, rc, flusher, connected); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case frame := <-client.frames:
			if err := writeFrame(w, rc, flusher, frame); err != nil {
				log.Debug().Err(err).Str("clientId", client.ID).Msg("SSE write failed, closing stream")
				return
			}
		}
	}
}

func formatFrame(eventType string, payload []byte) []byte {
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", eventType, payload)
}

// writeFrame writes and flushes one frame. Writers without deadline support are written without one.
func writeFrame(w http.ResponseWriter, rc *http.ResponseController, flusher http.Flusher, frame []byte) error {
	_ = rc.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if _, err := w.Write(frame); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
