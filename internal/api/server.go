// Package api serves the score handler over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"score-handler/internal/common/config"
	"score-handler/internal/common/logger"
	"score-handler/internal/models"
	"score-handler/internal/service"
	"score-handler/internal/survey"
)

// ScoreService is the part of service.Service the API calls.
type ScoreService interface {
	ScoreSurvey(ctx context.Context, sub *survey.Submission) (*service.SurveyResult, error)
	ScoreClusteredSurvey(ctx context.Context, sub *survey.Submission) (*service.ClusteredSurveyResult, error)
	ComputeRepaymentPlan(ctx context.Context, req service.PlanRequest) (*service.PlanResult, error)
	GetUserRepaymentPlan(ctx context.Context, userID string) (*service.PlanResult, error)
	RegisterNonDefaulter(ctx context.Context, req service.NonDefaulterRequest) (*models.NonDefaulterProfile, error)
	ReplaceNonDefaulter(ctx context.Context, req service.NonDefaulterRequest) (*models.NonDefaulterProfile, error)
	ListNonDefaulters(ctx context.Context) ([]models.NonDefaulterProfile, error)
	RebuildRiskModel(ctx context.Context) (*service.ModelStatus, error)
	ModelStatus() *service.ModelStatus
}

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	cfg     config.HTTPConfig
	svc     ScoreService
	checks  []ReadyCheck
	router  *gin.Engine
	limiter *rate.Limiter
	logger  logger.Logger
}

func NewServer(cfg config.HTTPConfig, svc ScoreService, log logger.Logger, checks ...ReadyCheck) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		checks: checks,
		router: gin.New(),
		logger: logger.Component(log, "api"),
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}

	s.router.Use(gin.Recovery(), s.requestID(), s.cors(), s.accessLog())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.GET("/", s.handleHealth)
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	scored := r.Group("/", s.rateLimit(), s.timeout())
	{
		scored.POST("/survey", s.handleSurvey)
		scored.POST("/clustered-survey", s.handleClusteredSurvey)
		scored.POST("/repayment-plan", s.handleComputePlan)
		scored.GET("/repayment-plan/:userId", s.handleGetPlan)
		scored.GET("/non-defaulters", s.handleListNonDefaulters)
		scored.POST("/non-defaulters", s.handleRegisterNonDefaulter)
		scored.PUT("/non-defaulters/:userId", s.handleReplaceNonDefaulter)
		scored.POST("/risk-model/rebuild", s.handleRebuildModel)
		scored.GET("/risk-model", s.handleModelStatus)
	}

	r.NoRoute(s.handleNotFound)
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer builds the listener with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  millis(s.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: millis(s.cfg.WriteTimeout, 30*time.Second),
	}
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
