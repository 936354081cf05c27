// Package coordinator owns top-level navigation. The transport reports a
// revoked credential as an Invalidation; the coordinator tears the session
// down and sends the view to the login route.
package coordinator

import (
	"context"
	"time"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/gate"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

type Navigator interface {
	Navigate(path string)
}

// Session is the part of the session manager teardown needs.
type Session interface {
	Clear(ctx context.Context) error
}

type Metrics interface {
	IncInvalidation()
}

type Options struct {
	// Reset drops container state tied to the revoked principal.
	Reset   func()
	Metrics Metrics
	Buffer  int
	Logger  *logger.Logger
}

type Coordinator struct {
	session Session
	nav     Navigator
	reset   func()
	metrics Metrics
	log     *logger.Logger
	events  chan backend.Invalidation
}

func New(sess Session, nav Navigator, opts Options) *Coordinator {
	if opts.Buffer <= 0 {
		opts.Buffer = 8
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Coordinator{
		session: sess,
		nav:     nav,
		reset:   opts.Reset,
		metrics: opts.Metrics,
		log:     opts.Logger.With("component", "Coordinator"),
		events:  make(chan backend.Invalidation, opts.Buffer),
	}
}

// Invalidate enqueues ev without blocking. When the queue is full a teardown
// is already pending and ev is dropped.
func (c *Coordinator) Invalidate(ev backend.Invalidation) {
	select {
	case c.events <- ev:
	default:
		c.log.Debug("invalidation dropped; teardown already queued", "path", ev.Path)
	}
}

// Run handles invalidations until ctx ends.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.teardown(ctx, ev)
			c.drain()
		}
	}
}

// drain discards invalidations raised by requests that were already in
// flight when the first one arrived.
func (c *Coordinator) drain() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}

func (c *Coordinator) teardown(ctx context.Context, ev backend.Invalidation) {
	c.log.Info("session invalidated", "method", ev.Method, "path", ev.Path, "request_id", ev.RequestID)
	if c.metrics != nil {
		c.metrics.IncInvalidation()
	}
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.session.Clear(clearCtx); err != nil {
		c.log.Warn("clear persisted session failed", "error", err)
	}
	if c.reset != nil {
		c.reset()
	}
	c.nav.Navigate(gate.LoginPath)
}
