package bus

import (
	"context"

	"github.com/yungbote/coursemarket-client/internal/realtime"
)

// Bus carries realtime messages between shells that share a session store.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}

// Fanout delivers every message to the local hub and mirrors it onto the
// bus. Messages coming back from the bus with this shell's origin are
// ignored.
type Fanout struct {
	local  realtime.Publisher
	bus    Bus
	origin string
	onErr  func(error)
}

func NewFanout(local realtime.Publisher, b Bus, origin string, onErr func(error)) *Fanout {
	return &Fanout{local: local, bus: b, origin: origin, onErr: onErr}
}

func (f *Fanout) Publish(msg realtime.Message) {
	f.local.Publish(msg)
	if f.bus == nil {
		return
	}
	msg.Origin = f.origin
	if err := f.bus.Publish(context.Background(), msg); err != nil && f.onErr != nil {
		f.onErr(err)
	}
}

// Start forwards remote messages to the local hub until ctx ends.
func (f *Fanout) Start(ctx context.Context) error {
	if f.bus == nil {
		return nil
	}
	return f.bus.StartForwarder(ctx, func(m realtime.Message) {
		if m.Origin == f.origin {
			return
		}
		f.local.Publish(m)
	})
}
