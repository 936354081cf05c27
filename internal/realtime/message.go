package realtime

import "time"

type Event string

const (
	EventStateChanged   Event = "state.changed"
	EventSessionChanged Event = "session.changed"
	EventNavigate       Event = "navigate"
	EventRedirect       Event = "redirect"
	EventPopup          Event = "popup"
)

// Channels a view can subscribe to.
const (
	ChannelState      = "state"
	ChannelNavigation = "navigation"
)

func ChannelFor(ev Event) string {
	switch ev {
	case EventNavigate, EventRedirect, EventPopup:
		return ChannelNavigation
	default:
		return ChannelState
	}
}

type Message struct {
	Channel string    `json:"channel"`
	Event   Event     `json:"event"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
	// Origin names the shell that produced the message when it crossed a bus.
	Origin string `json:"origin,omitempty"`
}

// StateChange is the payload of state.changed.
type StateChange struct {
	Container string `json:"container"`
	Op        string `json:"op"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Navigation is the payload of navigate, redirect and popup.
type Navigation struct {
	Path   string `json:"path,omitempty"`
	URL    string `json:"url,omitempty"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Publisher is what components hand their events to.
type Publisher interface {
	Publish(msg Message)
}

type PublisherFunc func(Message)

func (f PublisherFunc) Publish(msg Message) { f(msg) }

// Emit stamps and routes an event.
func Emit(p Publisher, ev Event, data any) {
	if p == nil {
		return
	}
	p.Publish(Message{Channel: ChannelFor(ev), Event: ev, Data: data, At: time.Now().UTC()})
}
