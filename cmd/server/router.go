package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/admin"
	"github.com/thereayou/studybud/internal/config"
	"github.com/thereayou/studybud/internal/handlers"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/web"
)

type routes struct {
	api      *handlers.API
	site     *web.Site
	console  *admin.Console
	sessions *middleware.Sessions
	metrics  *middleware.Metrics
	media    string
}

func newRouter(cfg *config.Config, rt routes) *gin.Engine {
	maxUpload := int64(cfg.Media.MaxUploadMB) << 20

	r := gin.New()
	r.MaxMultipartMemory = maxUpload
	r.Use(middleware.Recovery(), middleware.RequestLogger(), rt.metrics.Middleware())

	r.Static("/media", rt.media)

	app := r.Group("")
	app.Use(middleware.BodyLimit(maxUpload), rt.sessions.Identify())
	if cfg.Metrics.Addr == "" {
		app.GET("/metrics", middleware.RequireStaff(), rt.metrics.Handler())
	}
	rt.api.Mount(app)
	rt.console.Mount(app)
	rt.site.Mount(app)

	return r
}

// newMetricsRouter serves only /metrics, for the internal listener.
func newMetricsRouter(m *middleware.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/metrics", m.Handler())
	return r
}
