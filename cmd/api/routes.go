package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/leadpilot/leadsync/internal/httpapi"
	"github.com/leadpilot/leadsync/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, db *sql.DB, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		sync := v1.Group("/sync")
		{
			sync.POST("/run", h.TriggerSync)
			sync.GET("/runs", h.ListRuns)
			sync.GET("/last", h.LastSummary)
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("", h.ListCampaigns)
			campaigns.POST("/:id/credential", h.RotateCredential)
			campaigns.GET("/:id/remote", h.ListRemoteCampaigns)
			campaigns.GET("/:id/leads", h.ListLeads)
		}

		leads := v1.Group("/leads")
		{
			leads.GET("/duplicates", h.DuplicateReport)
			leads.POST("/:id/status", h.SetLeadStatus)
		}
	}
}
