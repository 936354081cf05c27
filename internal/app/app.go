package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/coordinator"
	httpX "github.com/yungbote/coursemarket-client/internal/http"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/payflow"
	"github.com/yungbote/coursemarket-client/internal/platform/envutil"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/realtime"
	"github.com/yungbote/coursemarket-client/internal/realtime/bus"
	"github.com/yungbote/coursemarket-client/internal/session"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type App struct {
	Log         *logger.Logger
	Cfg         Config
	Clients     Clients
	Session     *session.Manager
	Stores      *store.Stores
	Hub         *realtime.Hub
	Coordinator *coordinator.Coordinator
	Server      *httpX.Server
	Metrics     *observability.Metrics

	fanout       *bus.Fanout
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, log, cfg)
}

// NewWithConfig wires the shell from an already loaded config.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		SampleRatio: cfg.OtelSampleRatio,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OtelHeaders),
		Insecure:    cfg.OtelInsecure,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	metrics := observability.Current()
	sess := session.NewManager(clients.Persist, log)

	hub := realtime.NewHub(log)
	hub.OnConnection(metrics.SSEClientsInc, metrics.SSEClientsDec)

	var events realtime.Publisher = hub
	var fanout *bus.Fanout
	if clients.Bus != nil {
		busLog := log.With("component", "RealtimeBus")
		fanout = bus.NewFanout(hub, clients.Bus, uuid.NewString(), func(err error) {
			busLog.Warn("bus publish failed", "error", err)
		})
		events = fanout
	}
	nav := realtime.NewNavigator(events)

	// The coordinator is built after the stores it resets; the backend only
	// reports invalidations once requests start flowing.
	var coord *coordinator.Coordinator
	api, err := newBackend(log, cfg, sess, func(ev backend.Invalidation) {
		if coord != nil {
			coord.Invalidate(ev)
		}
	})
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	clients.Backend = api

	stores := store.New(api, store.Config{
		Social: store.SocialConfig{
			GoogleClientID: cfg.GoogleClientID,
			FacebookAppID:  cfg.FacebookAppID,
		},
		Greeting: cfg.ChatGreeting,
	}, store.Deps{
		Session: sess,
		Events:  events,
		Logger:  log,
		Metrics: metrics,
	})

	coord = coordinator.New(sess, nav, coordinator.Options{
		Reset:   stores.ResetUserData,
		Metrics: metrics,
		Logger:  log,
	})

	flow := payflow.New(stores.Payments, nav, payflow.Options{
		PopupWidth:  cfg.PaymePopupWidth,
		PopupHeight: cfg.PaymePopupHeight,
		Logger:      log,
	})

	handlers := wireHandlers(log, api, stores, sess, hub, flow, nav)
	mw := wireMiddleware(log, sess)
	server := wireServer(log, cfg, metrics, handlers, mw)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Session:      sess,
		Stores:       stores,
		Hub:          hub,
		Coordinator:  coord,
		Server:       server,
		Metrics:      metrics,
		fanout:       fanout,
		otelShutdown: otelShutdown,
	}, nil
}

// Start restores the persisted session and launches the background loops.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	restoreCtx, done := context.WithTimeout(ctx, 5*time.Second)
	if err := a.Session.Restore(restoreCtx); err != nil {
		a.Log.Warn("restore session failed", "error", err)
	}
	done()

	go a.Coordinator.Run(ctx)

	if a.fanout != nil {
		go func() {
			if err := a.fanout.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Log.Warn("realtime bus forwarder stopped", "error", err)
			}
		}()
	}
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Shell listening", "addr", a.Cfg.ShellAddr, "backend", a.Clients.Backend.BaseURL())
	return a.Server.Run(ctx, a.Cfg.ShellAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
