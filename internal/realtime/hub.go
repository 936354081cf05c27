package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const (
	outboundSize   = 32
	navigationSize = 8
)

// Client buffers state events and navigation events separately so a burst of
// state changes never crowds out a navigation.
type Client struct {
	ID         uuid.UUID
	Channels   map[string]bool
	Outbound   chan Message
	Navigation chan Message
	done       chan struct{}
	once       sync.Once
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
	heartbeat     time.Duration

	onConnect    func()
	onDisconnect func()
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
		heartbeat:     15 * time.Second,
	}
}

// OnConnection registers gauges for connected clients.
func (hub *Hub) OnConnection(connect, disconnect func()) {
	hub.onConnect = connect
	hub.onDisconnect = disconnect
}

func (hub *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Channels: make(map[string]bool),
		Outbound:   make(chan Message, outboundSize),
		Navigation: make(chan Message, navigationSize),
		done:       make(chan struct{}),
	}
}

func (hub *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Channels[channel] = true
	clients, ok := hub.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *Hub) Unsubscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	hub.mu.Lock()
	defer hub.mu.Unlock()

	delete(client.Channels, channel)
	if subs, ok := hub.subscriptions[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
}

func (hub *Hub) removeClient(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for ch := range client.Channels {
		if subs, ok := hub.subscriptions[ch]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(hub.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

// Publish satisfies Publisher.
func (hub *Hub) Publish(msg Message) { hub.Broadcast(msg) }

// Broadcast never blocks. A client whose state buffer is full misses the
// message; a full navigation buffer gives up its oldest entry instead.
func (hub *Hub) Broadcast(msg Message) {
	if msg.Channel == "" {
		msg.Channel = ChannelFor(msg.Event)
	}
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for c := range hub.subscriptions[msg.Channel] {
		if msg.Channel == ChannelNavigation {
			hub.deliverNavigation(c, msg)
			continue
		}
		select {
		case c.Outbound <- msg:
		default:
			hub.log.Warn("dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

// deliverNavigation keeps the newest navigations. Only the last one matters
// to the view, so evicting the head is safe.
func (hub *Hub) deliverNavigation(c *Client, msg Message) {
	for i := 0; i < navigationSize; i++ {
		select {
		case c.Navigation <- msg:
			return
		default:
		}
		select {
		case old := <-c.Navigation:
			hub.log.Warn("evicting queued navigation; buffer full", "client_id", c.ID, "event", old.Event)
		default:
		}
	}
	hub.log.Warn("dropping navigation; buffer contended", "client_id", c.ID, "event", msg.Event)
}

// Subscribers counts clients on channel.
func (hub *Hub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[channel])
}

// ServeHTTP streams client's messages until the request ends or the client
// is closed.
func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if hub.onConnect != nil {
		hub.onConnect()
	}
	if hub.onDisconnect != nil {
		defer hub.onDisconnect()
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(hub.heartbeat)
	defer heartbeat.Stop()

	write := func(msg Message) {
		raw, err := json.Marshal(msg)
		if err != nil {
			hub.log.Warn("failed to marshal SSE message", "error", err)
			return
		}
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
		flusher.Flush()
	}

	for {
		// Navigation goes out ahead of queued state events.
		select {
		case msg := <-client.Navigation:
			write(msg)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			hub.log.Debug("SSE client context done", "client_id", client.ID)
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Navigation:
			write(msg)
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			write(msg)
		}
	}
}

// CloseClient unsubscribes client and stops its stream. Safe to call twice.
func (hub *Hub) CloseClient(client *Client) {
	client.once.Do(func() {
		hub.removeClient(client)
		close(client.done)
	})
}
