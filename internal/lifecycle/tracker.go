// Package lifecycle tracks the request state of every named operation a
// container runs. Each operation has its own record, so two operations in
// flight on one container never overwrite each other's outcome.
package lifecycle

import (
	"sort"
	"sync"
	"time"
)

type Status string

const (
	Idle      Status = "idle"
	Pending   Status = "pending"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

func (s Status) String() string { return string(s) }

type Record struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Seq       uint64    `json:"seq"`
}

// Ticket identifies one issued request of an operation.
type Ticket struct {
	Op  string
	Seq uint64
}

// Change is delivered to the change callback after every applied transition.
type Change struct {
	Op     string
	Record Record
}

type Tracker struct {
	mu       sync.Mutex
	records  map[string]Record
	seq      map[string]uint64
	now      func() time.Time
	onChange func(Change)
}

func NewTracker(onChange func(Change)) *Tracker {
	return &Tracker{
		records:  map[string]Record{},
		seq:      map[string]uint64{},
		now:      time.Now,
		onChange: onChange,
	}
}

// Begin moves op to pending and returns the ticket its completion must
// present. Any earlier ticket for op becomes stale.
func (t *Tracker) Begin(op string) Ticket {
	t.mu.Lock()
	t.seq[op]++
	n := t.seq[op]
	rec := Record{Status: Pending, UpdatedAt: t.now(), Seq: n}
	t.records[op] = rec
	t.mu.Unlock()

	t.emit(op, rec)
	return Ticket{Op: op, Seq: n}
}

func (t *Tracker) Succeed(tk Ticket) bool {
	return t.finish(tk, Succeeded, "")
}

func (t *Tracker) Fail(tk Ticket, msg string) bool {
	if msg == "" {
		msg = "request failed"
	}
	return t.finish(tk, Failed, msg)
}

// Cancel returns op to idle with no error.
func (t *Tracker) Cancel(tk Ticket) bool {
	return t.finish(tk, Idle, "")
}

// finish applies only when tk is the newest ticket for its op, so the last
// issued request wins rather than the last one to resolve.
func (t *Tracker) finish(tk Ticket, st Status, msg string) bool {
	t.mu.Lock()
	if t.seq[tk.Op] != tk.Seq {
		t.mu.Unlock()
		return false
	}
	rec := Record{Status: st, Error: msg, UpdatedAt: t.now(), Seq: tk.Seq}
	t.records[tk.Op] = rec
	t.mu.Unlock()

	t.emit(tk.Op, rec)
	return true
}

// Current reports whether tk is still the newest ticket for its op.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq[tk.Op] == tk.Seq
}

// Get returns the record for op; an op never begun is idle.
func (t *Tracker) Get(op string) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.records[op]; ok {
		return rec
	}
	return Record{Status: Idle}
}

func (t *Tracker) Snapshot() map[string]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Record, len(t.records))
	for k, v := range t.records {
		out[k] = v
	}
	return out
}

// Loading is true while any op is pending.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.records {
		if rec.Status == Pending {
			return true
		}
	}
	return false
}

// Errors lists the ops currently failed, sorted by name.
func (t *Tracker) Errors() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := map[string]string{}
	for op, rec := range t.records {
		if rec.Status == Failed {
			out[op] = rec.Error
		}
	}
	return out
}

// FailedOps is Errors' keys in order.
func (t *Tracker) FailedOps() []string {
	errs := t.Errors()
	ops := make([]string, 0, len(errs))
	for op := range errs {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// ClearError resets a failed op to idle. Pending or succeeded ops are left
// alone.
func (t *Tracker) ClearError(op string) {
	t.mu.Lock()
	rec, ok := t.records[op]
	if !ok || rec.Status != Failed {
		t.mu.Unlock()
		return
	}
	rec = Record{Status: Idle, UpdatedAt: t.now(), Seq: rec.Seq}
	t.records[op] = rec
	t.mu.Unlock()

	t.emit(op, rec)
}

// Reset forgets every op. Tickets issued before the reset become stale.
func (t *Tracker) Reset() {
	t.mu.Lock()
	ops := make([]string, 0, len(t.records))
	for op := range t.records {
		ops = append(ops, op)
	}
	t.records = map[string]Record{}
	for op := range t.seq {
		t.seq[op]++
	}
	t.mu.Unlock()

	for _, op := range ops {
		t.emit(op, Record{Status: Idle, UpdatedAt: t.now()})
	}
}

func (t *Tracker) emit(op string, rec Record) {
	if t.onChange != nil {
		t.onChange(Change{Op: op, Record: rec})
	}
}
