package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"persona-review/internal/services/health"
	"persona-review/internal/shared/metrics"
	"persona-review/internal/shared/server/middleware"
	"persona-review/internal/shared/server/respond"
)

// CompletionGroup is the rate-limit group of routes that call the model.
const CompletionGroup = "COMPLETION"

// Routes is implemented by each feature handler. completion runs in front of
// routes that trigger a model call.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup, completion ...gin.HandlerFunc)
}

// RouterDeps carries everything NewRouter wires together.
type RouterDeps struct {
	CORSAllowOrigins     []string
	CompletionRatePerMin int
	Health               *health.Service
	Features             []Routes
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigins),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(0)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	var completion []gin.HandlerFunc
	if limiter := completionLimiter(deps.CompletionRatePerMin); limiter != nil {
		completion = append(completion, limiter)
	}

	for _, f := range deps.Features {
		f.RegisterRoutes(api, completion...)
	}
	return r
}

func completionLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return nil
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			CompletionGroup: {Rate: float64(perMinute) / 60, Burst: perMinute},
		},
		GroupFor: func(*gin.Context) string { return CompletionGroup },
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
