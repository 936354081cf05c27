package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatusKinds(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusBadRequest, KindValidation},
		{http.StatusNotFound, KindValidation},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}
	for _, tc := range cases {
		if got := FromStatus(tc.status, "", "").Kind; got != tc.want {
			t.Fatalf("status=%d kind=%s want=%s", tc.status, got, tc.want)
		}
	}
}

func TestFromStatusFallsBackToStatusText(t *testing.T) {
	err := FromStatus(http.StatusNotFound, "", " ")
	if err.Error() != "Not Found" {
		t.Fatalf("msg=%q", err.Error())
	}
}

func TestTransportCanceled(t *testing.T) {
	err := Transport(fmt.Errorf("do: %w", context.Canceled))
	if err.Kind != KindCanceled {
		t.Fatalf("kind=%s", err.Kind)
	}
	if KindOf(fmt.Errorf("wrapped: %w", err)) != KindCanceled {
		t.Fatalf("KindOf did not unwrap")
	}
}

func TestTransportDeadlineIsNetwork(t *testing.T) {
	err := Transport(context.DeadlineExceeded)
	if err.Kind != KindNetwork {
		t.Fatalf("kind=%s", err.Kind)
	}
	if err.Error() != "request timed out" {
		t.Fatalf("msg=%q", err.Error())
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("nil message")
	}
	if got := Message(Validation("Invalid discount code")); got != "Invalid discount code" {
		t.Fatalf("got=%q", got)
	}
	if got := Message(errors.New("boom")); got != "boom" {
		t.Fatalf("got=%q", got)
	}
}
