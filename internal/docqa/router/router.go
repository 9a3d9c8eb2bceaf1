// Package router provides docqa service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kart-io/docqa/internal/docqa/handler"
)

// MetricsPath is the Prometheus scrape path.
const MetricsPath = "/metrics"

// Register registers the docqa routes.
func Register(r gin.IRouter, h *handler.DocQAHandler, gatherer prometheus.Gatherer) {
	logger.Info("Registering docqa routes...")

	r.GET("/healthz", h.Health)
	if gatherer != nil {
		r.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/ask", h.Ask)
		v1.POST("/ingest", h.Ingest)
		v1.GET("/stats", h.Stats)
	}

	logger.Info("HTTP routes registered")
}
