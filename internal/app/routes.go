package app

import (
	"context"
	"net/http"

	"github.com/garyellow/storebot/internal/buildinfo"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/sentry"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter builds the HTTP routes. Channel routes exist only for enabled channels.
func (a *Application) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		basicAuthMiddleware("metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	if a.whatsapp != nil {
		router.GET("/webhook/whatsapp", a.whatsapp.Verify)
		router.POST("/webhook/whatsapp", a.whatsapp.Handle)
	}
	if a.line != nil {
		router.POST("/webhook/line", a.line.Handle)
	}
	if a.simulator != nil {
		a.simulator.Register(router)
	}
	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"release": buildinfo.Release(),
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	conversations, err := a.db.CountConversations(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: conversations unreadable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "conversations unreadable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"database":      "connected",
		"conversations": conversations,
		"channels":      a.channels(),
	})
}

// channels reports which inbound surfaces are enabled.
func (a *Application) channels() map[string]bool {
	return map[string]bool{
		"whatsapp":  a.whatsapp != nil,
		"line":      a.line != nil,
		"simulator": a.simulator != nil,
	}
}
