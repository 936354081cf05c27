package lifecycle

import (
	"sync"
	"testing"
)

func TestBeginSucceed(t *testing.T) {
	tr := NewTracker(nil)
	if got := tr.Get("fetchCourses").Status; got != Idle {
		t.Fatalf("initial=%s", got)
	}
	tk := tr.Begin("fetchCourses")
	if !tr.Loading() || tr.Get("fetchCourses").Status != Pending {
		t.Fatalf("expected pending")
	}
	if !tr.Succeed(tk) {
		t.Fatalf("succeed not applied")
	}
	if rec := tr.Get("fetchCourses"); rec.Status != Succeeded || rec.Error != "" {
		t.Fatalf("rec=%+v", rec)
	}
	if tr.Loading() {
		t.Fatalf("no op should be pending")
	}
}

func TestStaleCompletionDropped(t *testing.T) {
	tr := NewTracker(nil)
	first := tr.Begin("fetchCourse")
	second := tr.Begin("fetchCourse")

	if !tr.Succeed(second) {
		t.Fatalf("newest completion should apply")
	}
	if tr.Fail(first, "timeout") {
		t.Fatalf("stale completion applied")
	}
	if rec := tr.Get("fetchCourse"); rec.Status != Succeeded || rec.Seq != second.Seq {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestOperationsAreIndependent(t *testing.T) {
	tr := NewTracker(nil)
	a := tr.Begin("fetchPopular")
	b := tr.Begin("fetchLevels")
	tr.Fail(a, "boom")
	tr.Succeed(b)

	if tr.Get("fetchPopular").Status != Failed || tr.Get("fetchLevels").Status != Succeeded {
		t.Fatalf("snapshot=%+v", tr.Snapshot())
	}
	if ops := tr.FailedOps(); len(ops) != 1 || ops[0] != "fetchPopular" {
		t.Fatalf("failed=%v", ops)
	}
}

func TestCancelReturnsToIdle(t *testing.T) {
	tr := NewTracker(nil)
	tk := tr.Begin("send")
	if !tr.Cancel(tk) {
		t.Fatalf("cancel not applied")
	}
	if rec := tr.Get("send"); rec.Status != Idle || rec.Error != "" {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestClearErrorOnlyTouchesFailed(t *testing.T) {
	tr := NewTracker(nil)
	tk := tr.Begin("login")
	tr.Fail(tk, "Invalid credentials")
	tr.ClearError("login")
	if rec := tr.Get("login"); rec.Status != Idle || rec.Error != "" {
		t.Fatalf("rec=%+v", rec)
	}

	tk = tr.Begin("login")
	tr.ClearError("login")
	if tr.Get("login").Status != Pending {
		t.Fatalf("pending op should not be cleared")
	}
	_ = tk
}

func TestResetStalesTickets(t *testing.T) {
	tr := NewTracker(nil)
	tk := tr.Begin("fetchTest")
	tr.Reset()
	if tr.Succeed(tk) {
		t.Fatalf("ticket issued before reset should be stale")
	}
	if len(tr.Snapshot()) != 0 {
		t.Fatalf("snapshot=%+v", tr.Snapshot())
	}
}

func TestChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var got []Status
	tr := NewTracker(func(c Change) {
		mu.Lock()
		got = append(got, c.Record.Status)
		mu.Unlock()
	})
	tk := tr.Begin("claim")
	tr.Fail(tk, "")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != Pending || got[1] != Failed {
		t.Fatalf("got=%v", got)
	}
	if tr.Get("claim").Error != "request failed" {
		t.Fatalf("default message missing")
	}
}
