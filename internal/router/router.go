package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/handlers"
	"swap-backend/internal/middleware"
)

// corsMiddleware CORS middleware
// Origins come from CORS_ALLOWED_ORIGINS (comma-separated); default allows all
func corsMiddleware() gin.HandlerFunc {
	allowedOrigins := []string{"*"}
	if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
		allowedOrigins = allowedOrigins[:0]
		for _, origin := range strings.Split(envOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if allowed == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Quote *handlers.QuoteHandler
	Swap  *handlers.SwapHandler
	Admin *handlers.AdminHandler
	Auth  *middleware.AuthMiddleware
}

// SetupRouter assembles the gin engine with middleware and routes.
func SetupRouter(logger *logrus.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(middleware.RequestLogger(logger))

	// ============ Health Check ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "swap-backend",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	api := r.Group("/api")
	{
		api.POST("/quote", h.Quote.CreateQuoteHandler)
		api.GET("/quote/:id", h.Quote.GetQuoteHandler)

		api.POST("/swap/build", h.Swap.BuildSwapHandler)
		api.POST("/swap/execute", h.Swap.ExecuteSwapHandler)
	}

	// ============ Admin Routes (JWT) ============
	admin := r.Group("/api/admin")
	admin.Use(h.Auth.RequireAuth())
	{
		admin.GET("/quotes", h.Admin.ListQuotesHandler)
		admin.GET("/attempts", h.Admin.ListAttemptsHandler)
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
