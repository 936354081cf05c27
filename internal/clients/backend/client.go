package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
	"github.com/yungbote/coursemarket-client/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-client/internal/platform/envutil"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const defaultBaseURL = "http://localhost:8000/api"

// TokenSource yields the credential attached to outgoing requests. An empty
// token means the request goes out anonymous.
type TokenSource interface {
	Token() string
}

// Invalidation is emitted once for every response that signals the session
// is no longer valid. Receivers decide what to do about it; the client only
// reports.
type Invalidation struct {
	Method    string
	Path      string
	At        time.Time
	RequestID string
}

type Options struct {
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client

	Tokens         TokenSource
	OnUnauthorized func(Invalidation)

	UserAgent string
	Logger    *logger.Logger
}

type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string

	tokens         TokenSource
	onUnauthorized func(Invalidation)

	httpClient *http.Client
	log        *logger.Logger
	now        func() time.Time
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var hc http.Client
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "backend " + r.Method + " " + r.URL.Path
		}),
	)

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "coursemarket-client"
	}

	return &Client{
		baseURL:        baseURL,
		timeout:        timeout,
		userAgent:      ua,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		httpClient:     &hc,
		log:            log.With("component", "BackendClient"),
		now:            time.Now,
	}, nil
}

func NewFromEnv(tokens TokenSource, onUnauthorized func(Invalidation), log *logger.Logger) (*Client, error) {
	return New(Options{
		BaseURL:        envutil.String("API_BASE_URL", defaultBaseURL),
		Timeout:        envutil.Seconds("API_TIMEOUT_SECONDS", 30*time.Second),
		Tokens:         tokens,
		OnUnauthorized: onUnauthorized,
		Logger:         log,
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// doJSON performs exactly one round trip. There is no retry: a failed call is
// reported and the caller decides whether the user tries again.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return apierr.New(apierr.KindValidation, 0, "encode_request", err)
		}
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(buf.Bytes())
	}
	req, err := http.NewRequestWithContext(ctx2, method, target, reader)
	if err != nil {
		return apierr.New(apierr.KindValidation, 0, "build_request", err)
	}
	rid := ctxutil.RequestID(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	c.setHeaders(req, rid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		aerr := apierr.Transport(err)
		if aerr.Kind != apierr.KindCanceled {
			c.log.Warn("backend request failed", "method", method, "path", path, "request_id", rid, "error", err)
		}
		return aerr
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidate(Invalidation{Method: method, Path: path, At: c.now(), RequestID: rid})
		return parseError(resp.StatusCode, raw)
	}
	if readErr != nil {
		return apierr.Transport(readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Error("decode backend response", "method", method, "path", path, "request_id", rid, "error", err)
		return apierr.Server("malformed response from server", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens == nil {
		return
	}
	if tok := strings.TrimSpace(c.tokens.Token()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

func (c *Client) invalidate(ev Invalidation) {
	c.log.Info("session rejected by backend", "method", ev.Method, "path", ev.Path, "request_id", ev.RequestID)
	if c.onUnauthorized != nil {
		c.onUnauthorized(ev)
	}
}
