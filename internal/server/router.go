package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/tracker"
)

type RouterConfig struct {
	Service      *tracker.Service
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", TimezoneHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	router.Use(cors.New(corsCfg))

	h := NewStreakHandler(cfg.Service)

	router.GET("/healthz", HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/streaks", h.ListStreaks)
		api.GET("/streaks/:userId", h.GetStreak)
		api.POST("/streaks/:userId/entries", h.CreateEntry)
		api.POST("/streaks/:userId/recover", h.Recover)
		api.POST("/streaks/:userId/freezes", h.AwardFreeze)
		api.POST("/streaks/:userId/milestones/viewed", h.MarkMilestonesViewed)
	}

	return router
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}
