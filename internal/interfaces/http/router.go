// Package http assembles the gin engine and the HTTP server around it.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/BlockchainHB/launchfast-sub000/internal/config"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http/handlers"
	"github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http/middleware"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Service  handlers.ResearchService
	Metrics  *prometheus.Metrics
	Logger   logging.Logger
	Research config.ResearchConfig
	Mode     string
	Version  string
	Checkers []handlers.HealthChecker
}

// NewRouter builds the fully wired gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogging(log.Named("http"), middleware.DefaultLoggingConfig()))
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	handlers.NewHealthHandler(cfg.Version, cfg.Checkers...).RegisterRoutes(engine)

	api := engine.Group("/api/v1")
	api.Use(middleware.RequireUser())

	handlers.NewResearchHandler(cfg.Service, log, cfg.Research.SessionNameMaxLen, cfg.Research.EnhanceResults).
		RegisterRoutes(api)
	handlers.NewSessionHandler(cfg.Service, log, cfg.Research.SessionNameMaxLen).
		RegisterRoutes(api)

	return engine
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
