// Package routes registers all HTTP routes. Route definitions live in
// the infrastructure layer, not in main.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/phishsim/api/internal/infra/http"
	"github.com/phishsim/api/internal/infra/http/handler"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health     *handler.HealthHandler
	Campaign   *handler.CampaignHandler
	Target     *handler.TargetHandler
	Credential *handler.CredentialHandler
	Analytics  *handler.AnalyticsHandler
	Tracking   *handler.TrackingHandler
}

// Register registers all application routes: the public tracking
// surface under /t, the admin API under /api/v1, and the health and
// metrics endpoints at the root.
func Register(router Router, h Handlers) {
	registerHealthRoutes(router, h.Health)

	if h.Tracking != nil {
		registerTrackingRoutes(router, h.Tracking)
	}

	router.Group("/api/v1", func(r Router) {
		if h.Campaign != nil {
			registerCampaignRoutes(r, h.Campaign)
		}
		if h.Target != nil {
			registerTargetRoutes(r, h.Target)
		}
		if h.Credential != nil {
			registerCredentialRoutes(r, h.Credential)
		}
		if h.Analytics != nil {
			registerAnalyticsRoutes(r, h.Analytics)
		}
	})
}

// registerHealthRoutes registers health check and metrics endpoints.
func registerHealthRoutes(router Router, h *handler.HealthHandler) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
}

// registerTrackingRoutes registers the public tracking surface. These
// endpoints are hit by lure emails and the decoy page, so they carry
// no auth and the pixel/click pair fails open.
func registerTrackingRoutes(router Router, h *handler.TrackingHandler) {
	router.Group("/t", func(r Router) {
		r.GET("/pixel", h.Pixel)
		r.GET("/click", h.Click)
		r.POST("/page", h.Page)
		r.POST("/form", h.Form)
		r.POST("/submit", h.Submit)
	})
}

// registerCampaignRoutes registers campaign CRUD and lifecycle
// endpoints.
func registerCampaignRoutes(router Router, h *handler.CampaignHandler) {
	router.Group("/campaigns", func(r Router) {
		r.GET("/", h.List)
		r.POST("/", h.Create)
		r.GET("/{id}", h.Get)
		r.PATCH("/{id}", h.Update)
		r.DELETE("/{id}", h.Delete)
		r.GET("/{id}/stats", h.Stats)

		r.POST("/{id}/start", h.Start)
		r.POST("/{id}/pause", h.Pause)
		r.POST("/{id}/resume", h.Resume)
		r.POST("/{id}/complete", h.Complete)
	})
}

// registerTargetRoutes registers target CRUD and CSV import/export.
func registerTargetRoutes(router Router, h *handler.TargetHandler) {
	router.POST("/targets", h.Create)
	router.GET("/targets/{id}", h.Get)
	router.PATCH("/targets/{id}", h.Update)
	router.DELETE("/targets/{id}", h.Delete)

	router.GET("/campaigns/{id}/targets", h.List)
	router.POST("/campaigns/{id}/targets/import", h.Import)
	router.GET("/campaigns/{id}/targets/export", h.Export)
}

// registerCredentialRoutes registers captured-credential views.
func registerCredentialRoutes(router Router, h *handler.CredentialHandler) {
	router.GET("/credentials/{id}", h.Get)
	router.GET("/campaigns/{id}/credentials", h.List)
	router.GET("/campaigns/{id}/credentials/analysis", h.Analysis)
}

// registerAnalyticsRoutes registers the campaign analytics views.
func registerAnalyticsRoutes(router Router, h *handler.AnalyticsHandler) {
	router.GET("/campaigns/{id}/funnel", h.Funnel)
	router.GET("/campaigns/{id}/events", h.Events)
	router.GET("/campaigns/{id}/timeline", h.Timeline)
	router.GET("/campaigns/{id}/activity/hourly", h.Hourly)
	router.GET("/campaigns/{id}/devices", h.Devices)
	router.GET("/campaigns/{id}/targets/{targetID}/journey", h.Journey)
}
