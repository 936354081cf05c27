package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

func newTestApp(t *testing.T, backend http.HandlerFunc) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := Config{
		APIBaseURL:       srv.URL + "/api",
		APITimeout:       2 * time.Second,
		SessionBackend:   SessionMemory,
		ShellAddr:        "127.0.0.1:0",
		ServiceName:      "coursemarket-shell-test",
		PaymePopupWidth:  450,
		PaymePopupHeight: 600,
	}
	a, err := NewWithConfig(context.Background(), logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)
	a.Start(context.Background())
	return a
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, req)
	return w
}

func TestLoginThenRevokedCredentialTearsDown(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login/":
			_, _ = w.Write([]byte(`{"token":"opaque-1","user":{"id":4,"username":"aziz","email":"a@b.uz"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
		}
	})

	w := serve(a, http.MethodPost, "/auth/login", `{"email":"a@b.uz","password":"pw","next":"/payments"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"redirect":"/payments"`) {
		t.Fatalf("login code=%d body=%s", w.Code, w.Body.String())
	}
	if !a.Session.IsAuthenticated() {
		t.Fatalf("session not set after login")
	}

	serve(a, http.MethodGet, "/rewards", "")

	deadline := time.Now().Add(time.Second)
	for a.Session.IsAuthenticated() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.Session.IsAuthenticated() {
		t.Fatalf("session survived a 401")
	}
	if a.Stores.Auth.Snapshot().IsAuthenticated {
		t.Fatalf("auth container still authenticated")
	}

	w = serve(a, http.MethodGet, "/rewards", "")
	if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/login?next=%2Frewards" {
		t.Fatalf("gate code=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestHealthReportsBackend(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})
	w := serve(a, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), a.Cfg.APIBaseURL) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
}
