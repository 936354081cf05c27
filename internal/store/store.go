// Package store holds the client's domain containers. Each container owns its
// entities, keeps one lifecycle record per operation and exposes dispatchers
// that issue exactly one backend call and map the outcome onto its state.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/realtime"
	"github.com/yungbote/coursemarket-client/internal/session"
)

const (
	ContainerAuth     = "auth"
	ContainerCourses  = "courses"
	ContainerPayments = "payments"
	ContainerTests    = "tests"
	ContainerRewards  = "rewards"
	ContainerChat     = "chat"
)

type Deps struct {
	Session *session.Manager
	Events  realtime.Publisher
	Logger  *logger.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Session == nil {
		d.Session = session.NewManager(nil, d.Logger)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// base is embedded by every container. mu guards the container's entity
// state; the tracker has its own lock.
type base struct {
	mu      sync.RWMutex
	name    string
	log     *logger.Logger
	tracker *lifecycle.Tracker
	events  realtime.Publisher
	metrics *observability.Metrics
	now     func() time.Time
}

func (b *base) init(name string, d Deps) {
	b.name = name
	b.log = d.Logger.With("component", name+"Store")
	b.events = d.Events
	b.metrics = d.Metrics
	b.now = d.Now
	b.tracker = lifecycle.NewTracker(func(c lifecycle.Change) {
		realtime.Emit(d.Events, realtime.EventStateChanged, realtime.StateChange{
			Container: name,
			Op:        c.Op,
			Status:    c.Record.Status.String(),
			Error:     c.Record.Error,
		})
	})
}

// Ops returns every operation's lifecycle record.
func (b *base) Ops() map[string]lifecycle.Record { return b.tracker.Snapshot() }

func (b *base) Op(op string) lifecycle.Record { return b.tracker.Get(op) }

func (b *base) Loading() bool { return b.tracker.Loading() }

func (b *base) ClearError(op string) { b.tracker.ClearError(op) }

// settle maps err onto the ticket's record. apply runs under the container
// lock and only while the ticket is still the newest for its op, so a stale
// response never overwrites a newer one.
func (b *base) settle(tk lifecycle.Ticket, err error, apply func()) string {
	if err == nil {
		b.mu.Lock()
		if !b.tracker.Current(tk) {
			b.mu.Unlock()
			return "stale"
		}
		if apply != nil {
			apply()
		}
		b.mu.Unlock()
		b.tracker.Succeed(tk)
		return "succeeded"
	}
	if apierr.Is(err, apierr.KindCanceled) || errors.Is(err, context.Canceled) {
		if !b.tracker.Cancel(tk) {
			return "stale"
		}
		return "canceled"
	}
	if !b.tracker.Fail(tk, apierr.Message(err)) {
		return "stale"
	}
	b.log.Warn("dispatch failed", "op", tk.Op, "kind", apierr.KindOf(err), "error", err)
	return "failed"
}

func (b *base) publish(ev realtime.Event, data any) {
	realtime.Emit(b.events, ev, data)
}

// dispatch runs one operation: span, lifecycle ticket, the call, then the
// state update. The caller gets the call's result and error either way.
func dispatch[T any](ctx context.Context, b *base, op string, call func(context.Context) (T, error), apply func(T)) (T, error) {
	start := time.Now()
	ctx, span := observability.StartDispatch(ctx, b.name, op)
	tk := b.tracker.Begin(op)

	out, err := call(ctx)
	status := b.settle(tk, err, func() {
		if apply != nil {
			apply(out)
		}
	})

	b.metrics.ObserveDispatch(b.name, op, status, time.Since(start))
	observability.EndDispatch(span, err)
	return out, err
}

// reject records a failure that never reached the network.
func (b *base) reject(op string, err error) error {
	tk := b.tracker.Begin(op)
	b.tracker.Fail(tk, apierr.Message(err))
	b.metrics.ObserveDispatch(b.name, op, "rejected", 0)
	return err
}

// shared collapses identical concurrent calls. The shared call runs detached
// from any single caller's cancellation; a caller that gives up returns
// immediately with a canceled error while the others keep waiting.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	ch := g.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, apierr.Transport(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}
