package web

import (
	"encoding/json"
	"sync"

	"whendropped/internal/aggregate"
	"whendropped/internal/logger"
)

// Event is one frame pushed to websocket clients. Panel frames carry the
// originating session so the client can ignore anything it no longer cares
// about; the server has already dropped superseded sessions' output.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Done      int    `json:"done,omitempty"`
	Total     int    `json:"total"`
}

// Hub implements aggregate.Sink by fanning every panel event out to the
// connected websocket clients. A slow client loses frames rather than
// blocking the render path.
type Hub struct {
	log *logger.Logger

	mu        sync.Mutex
	clients   map[chan []byte]bool
	sessionID string
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[chan []byte]bool),
	}
}

// SetSession tags subsequent frames with the live session's identity.
func (h *Hub) SetSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = id
}

// subscribe registers a client and returns its frame channel.
func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, 32)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = true
	return ch
}

// unsubscribe removes a client and closes its channel.
func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ch] {
		delete(h.clients, ch)
		close(ch)
	}
}

// broadcast marshals an event and offers it to every client, dropping the
// frame for clients whose buffers are full.
func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if event.Type != "picker" {
		event.SessionID = h.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal %s event: %v", event.Type, err)
		return
	}

	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

// aggregate.Sink implementation. Data arrives shaped; the hub only frames
// it.

func (h *Hub) RenderPicker(entries []aggregate.PickerEntry) {
	h.broadcast(Event{Type: "picker", Data: entries})
}

func (h *Hub) RenderHeader(header aggregate.Header) {
	h.broadcast(Event{Type: "header", Data: header})
}

func (h *Hub) RenderDetail(d *aggregate.DetailPanel) {
	h.broadcast(Event{Type: "detail", Data: d})
}

func (h *Hub) RenderHistory(items []aggregate.HistoryItem) {
	h.broadcast(Event{Type: "history", Data: items})
}

func (h *Hub) RenderConcurrent(items []aggregate.ConcurrentItem) {
	h.broadcast(Event{Type: "concurrent", Data: items})
}

func (h *Hub) RenderBroadcast(items []aggregate.BroadcastItem) {
	h.broadcast(Event{Type: "broadcast", Data: items})
}

func (h *Hub) RenderFilm(items []aggregate.FilmItem) {
	h.broadcast(Event{Type: "film", Data: items})
}

func (h *Hub) RenderArtist(a *aggregate.ArtistPanel) {
	h.broadcast(Event{Type: "artist", Data: a})
}

func (h *Hub) ReportProgress(done, total int) {
	h.broadcast(Event{Type: "progress", Done: done, Total: total})
}
