package main

import (
	"ipstamp/internal/httpapi"
	"ipstamp/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	v1.POST("/auth/login", h.Login)

	// RECORD routes
	records := v1.Group("/records")
	records.Use(authMW)
	{
		records.GET("/:table/:id", rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleEditor, rbac.RoleViewer), h.GetRecord)
		records.POST("/:table", rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleEditor), h.CreateRecord)

		// Touch rewrites stored IP attributes; owners only.
		records.POST("/:table/:id/touch", rbac.RequireAnyRole(rbac.RoleOwner), h.TouchRecord)
	}
}
