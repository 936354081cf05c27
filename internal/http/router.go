package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursemarket-client/internal/http/handlers"
	httpMW "github.com/yungbote/coursemarket-client/internal/http/middleware"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	SessionGate *httpMW.SessionGate

	HealthHandler   *httpH.HealthHandler
	StateHandler    *httpH.StateHandler
	RealtimeHandler *httpH.RealtimeHandler
	AuthHandler     *httpH.AuthHandler
	CourseHandler   *httpH.CourseHandler
	PaymentHandler  *httpH.PaymentHandler
	TestHandler     *httpH.TestHandler
	RewardHandler   *httpH.RewardHandler
	ChatHandler     *httpH.ChatHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// State + events (public)
	if cfg.StateHandler != nil {
		r.GET("/state", cfg.StateHandler.All)
		r.GET("/state/:container", cfg.StateHandler.One)
		r.DELETE("/state/:container/errors/:op", cfg.StateHandler.ClearError)
	}
	if cfg.RealtimeHandler != nil {
		r.GET("/events", cfg.RealtimeHandler.Stream)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		r.POST("/auth/login", cfg.AuthHandler.Login)
		r.POST("/auth/register", cfg.AuthHandler.Register)
		r.POST("/auth/social/:provider", cfg.AuthHandler.Social)
		r.POST("/auth/logout", cfg.AuthHandler.Logout)
		r.GET("/auth/me", cfg.AuthHandler.Me)
		r.GET("/gate", cfg.AuthHandler.Gate)
	}

	// Catalogue (public)
	if cfg.CourseHandler != nil {
		r.GET("/home", cfg.CourseHandler.Home)
		r.GET("/courses", cfg.CourseHandler.List)
		r.GET("/courses/:id", cfg.CourseHandler.Get)
	}

	// Chat (public)
	if cfg.ChatHandler != nil {
		r.POST("/chat/messages", cfg.ChatHandler.Send)
		r.GET("/chat/suggestions", cfg.ChatHandler.Suggestions)
		r.GET("/chat/analyze", cfg.ChatHandler.Analyze)
		r.POST("/chat/toggle", cfg.ChatHandler.Toggle)
	}

	protected := r.Group("/")
	{
		// Middleware
		if cfg.SessionGate != nil {
			protected.Use(cfg.SessionGate.RequireSession())
		}

		if cfg.CourseHandler != nil {
			protected.GET("/courses/purchased", cfg.CourseHandler.Purchased)
		}

		// Payments
		if cfg.PaymentHandler != nil {
			protected.POST("/payments", cfg.PaymentHandler.Create)
			protected.GET("/payments", cfg.PaymentHandler.List)
			protected.GET("/payments/:id/status", cfg.PaymentHandler.Status)
			protected.GET("/payments/discounts/:courseId", cfg.PaymentHandler.Discounts)
			protected.POST("/payments/discounts/:courseId/validate", cfg.PaymentHandler.ValidateDiscount)
			protected.POST("/payments/quote", cfg.PaymentHandler.Quote)
			protected.GET("/payment/success", cfg.PaymentHandler.Callback)
		}

		// Tests
		if cfg.TestHandler != nil {
			protected.GET("/tests/:id", cfg.TestHandler.Get)
			protected.POST("/tests/:id/submit", cfg.TestHandler.Submit)
			protected.GET("/tests/:id/results", cfg.TestHandler.Results)
		}

		// Rewards
		if cfg.RewardHandler != nil {
			protected.GET("/rewards", cfg.RewardHandler.Dashboard)
			protected.POST("/rewards/:id/claim", cfg.RewardHandler.Claim)
		}
	}

	return r
}
