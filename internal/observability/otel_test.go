package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, team=web ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "web" {
		t.Fatalf("got=%v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty should be nil")
	}
}

func TestClampRatio(t *testing.T) {
	if clampRatio(-1) != 0 || clampRatio(3) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clamp")
	}
}

func TestDispatchSpanWithoutProvider(t *testing.T) {
	ctx, span := StartDispatch(context.Background(), "CourseStore", "fetchCourses")
	if ctx == nil || span == nil {
		t.Fatalf("expected span")
	}
	EndDispatch(span, errors.New("boom"))
}
