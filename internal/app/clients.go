package app

import (
	"context"
	"fmt"
	"io"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/realtime/bus"
	"github.com/yungbote/coursemarket-client/internal/session"
)

type Clients struct {
	Backend *backend.Client
	// Persist is where the session survives restarts.
	Persist session.Persister
	Bus     bus.Bus

	closers []io.Closer
}

func openPersister(ctx context.Context, log *logger.Logger, cfg Config) (session.Persister, io.Closer, error) {
	switch cfg.SessionBackend {
	case SessionRedis:
		st, err := session.OpenRedisStore(ctx, cfg.RedisAddr, cfg.RedisSessionKey, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis session store: %w", err)
		}
		return st, st, nil
	case SessionMemory:
		return session.NewMemoryStore(), nil, nil
	default:
		st, err := session.OpenSQLStore(cfg.SessionSQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite session store: %w", err)
		}
		return st, st, nil
	}
}

// wireClients opens the session store and the optional realtime bus. The
// backend client is added by the caller once the token source exists.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	var out Clients

	persist, closer, err := openPersister(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	out.Persist = persist
	if closer != nil {
		out.closers = append(out.closers, closer)
	}

	if cfg.RealtimeBus {
		b, err := bus.NewRedisBus(ctx, cfg.RedisAddr, cfg.RealtimeChannel, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init realtime bus: %w", err)
		}
		out.Bus = b
		out.closers = append(out.closers, b)
	}
	return out, nil
}

func newBackend(log *logger.Logger, cfg Config, tokens backend.TokenSource, onUnauthorized func(backend.Invalidation)) (*backend.Client, error) {
	c, err := backend.New(backend.Options{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		Tokens:         tokens,
		OnUnauthorized: onUnauthorized,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
