package app

import (
	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	httpX "github.com/yungbote/coursemarket-client/internal/http"
	httpH "github.com/yungbote/coursemarket-client/internal/http/handlers"
	httpMW "github.com/yungbote/coursemarket-client/internal/http/middleware"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/payflow"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/realtime"
	"github.com/yungbote/coursemarket-client/internal/session"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	State    *httpH.StateHandler
	Realtime *httpH.RealtimeHandler
	Auth     *httpH.AuthHandler
	Course   *httpH.CourseHandler
	Payment  *httpH.PaymentHandler
	Test     *httpH.TestHandler
	Reward   *httpH.RewardHandler
	Chat     *httpH.ChatHandler
}

func wireHandlers(log *logger.Logger, api *backend.Client, stores *store.Stores, sess *session.Manager, hub *realtime.Hub, flow *payflow.Flow, nav *realtime.Navigator) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(api.BaseURL()),
		State:    httpH.NewStateHandler(stores),
		Realtime: httpH.NewRealtimeHandler(log, hub),
		Auth:     httpH.NewAuthHandler(stores.Auth, sess),
		Course:   httpH.NewCourseHandler(log, stores.Courses),
		Payment:  httpH.NewPaymentHandler(stores.Payments, flow, nav),
		Test:     httpH.NewTestHandler(stores.Tests),
		Reward:   httpH.NewRewardHandler(stores.Rewards),
		Chat:     httpH.NewChatHandler(stores.Chat),
	}
}

type Middleware struct {
	Gate *httpMW.SessionGate
}

func wireMiddleware(log *logger.Logger, sess *session.Manager) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Gate: httpMW.NewSessionGate(log, sess)}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, mw Middleware) *httpX.Server {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = cfg.ServiceName
	}
	return httpX.NewServer(httpX.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		SessionGate:     mw.Gate,
		HealthHandler:   handlers.Health,
		StateHandler:    handlers.State,
		RealtimeHandler: handlers.Realtime,
		AuthHandler:     handlers.Auth,
		CourseHandler:   handlers.Course,
		PaymentHandler:  handlers.Payment,
		TestHandler:     handlers.Test,
		RewardHandler:   handlers.Reward,
		ChatHandler:     handlers.Chat,
	})
}
