package bus

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-client/internal/realtime"
)

type memBus struct {
	mu        sync.Mutex
	published []realtime.Message
	forward   func(realtime.Message)
}

func (m *memBus) Publish(ctx context.Context, msg realtime.Message) error {
	m.mu.Lock()
	m.published = append(m.published, msg)
	m.mu.Unlock()
	return nil
}

func (m *memBus) StartForwarder(ctx context.Context, onMsg func(realtime.Message)) error {
	m.forward = onMsg
	return nil
}

func (m *memBus) Close() error { return nil }

func TestFanoutMirrorsAndSkipsOwnEcho(t *testing.T) {
	var local []realtime.Message
	pub := realtime.PublisherFunc(func(m realtime.Message) { local = append(local, m) })
	b := &memBus{}
	f := NewFanout(pub, b, "shell-a", nil)
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	realtime.Emit(f, realtime.EventSessionChanged, map[string]bool{"authenticated": false})
	if len(local) != 1 || len(b.published) != 1 || b.published[0].Origin != "shell-a" {
		t.Fatalf("local=%d published=%+v", len(local), b.published)
	}

	b.forward(b.published[0])
	if len(local) != 1 {
		t.Fatalf("own echo delivered")
	}
	b.forward(realtime.Message{Event: realtime.EventSessionChanged, Origin: "shell-b"})
	if len(local) != 2 {
		t.Fatalf("remote message not delivered")
	}
}

func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewRedisBus(ctx, addr, "coursemarket:test:"+t.Name(), nil)
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	got := make(chan realtime.Message, 1)
	if err := b.StartForwarder(ctx, func(m realtime.Message) { got <- m }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(ctx, realtime.Message{Event: realtime.EventNavigate, Origin: "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-got:
		if m.Event != realtime.EventNavigate {
			t.Fatalf("event=%s", m.Event)
		}
	case <-ctx.Done():
		t.Fatalf("timed out")
	}
}
