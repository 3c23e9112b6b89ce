package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phishsim/api/internal/app"
	redisinfra "github.com/phishsim/api/internal/infra/redis"
	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
)

// AnalyticsHandler serves the campaign analytics views: funnel,
// per-target journey, event timeline, hourly activity and device
// breakdown.
type AnalyticsHandler struct {
	tracking *app.TrackingService

	// funnelCache short-circuits repeated funnel reads; nil disables
	// caching. The funnel is the most expensive and most polled view.
	funnelCache *redisinfra.Cache[app.FunnelOutput]

	logger *logger.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler. funnelCache may
// be nil.
func NewAnalyticsHandler(tracking *app.TrackingService, funnelCache *redisinfra.Cache[app.FunnelOutput], log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		tracking:    tracking,
		funnelCache: funnelCache,
		logger:      log.With("handler", "analytics"),
	}
}

// Funnel returns the conversion funnel of a campaign.
// GET /api/v1/campaigns/{id}/funnel
func (h *AnalyticsHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	if h.funnelCache != nil {
		if cached, err := h.funnelCache.Get(r.Context(), campaignID.String()); err == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		} else if !errors.Is(err, redisinfra.ErrCacheMiss) {
			h.logger.Warn("funnel cache read failed", "campaign_id", campaignID.String(), "error", err)
		}
	}

	out, err := h.tracking.ConversionFunnel(r.Context(), campaignID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if h.funnelCache != nil {
		if err := h.funnelCache.Set(r.Context(), campaignID.String(), *out); err != nil {
			h.logger.Warn("funnel cache write failed", "campaign_id", campaignID.String(), "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Journey returns one target's journey through a campaign.
// GET /api/v1/campaigns/{id}/targets/{targetID}/journey
func (h *AnalyticsHandler) Journey(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}
	targetID, err := shared.IDFromString(chi.URLParam(r, "targetID"))
	if err != nil {
		apierror.BadRequest("Invalid target id").WriteJSON(w)
		return
	}

	out, err := h.tracking.TargetJourney(r.Context(), campaignID, targetID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// Timeline returns the most recent events of a campaign, newest
// first.
// GET /api/v1/campaigns/{id}/timeline
func (h *AnalyticsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	limit := parseQueryInt(r.URL.Query().Get("limit"), 50)

	entries, err := h.tracking.Timeline(r.Context(), campaignID, limit)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	resp := map[string]any{
		"items": entries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// EventResponse is the JSON shape of a tracking event.
type EventResponse struct {
	ID         string                `json:"id"`
	CampaignID string                `json:"campaign_id"`
	TargetID   *string               `json:"target_id,omitempty"`
	EventType  string                `json:"event_type"`
	Timestamp  time.Time             `json:"timestamp"`
	IPAddress  string                `json:"ip_address,omitempty"`
	Browser    tracking.BrowserInfo  `json:"browser"`
	Device     tracking.DeviceInfo   `json:"device"`
	EventData  map[string]string     `json:"event_data,omitempty"`
	IsUnique   bool                  `json:"is_unique"`
	Processed  bool                  `json:"processed"`
}

func toEventResponse(e *tracking.Event) EventResponse {
	resp := EventResponse{
		ID:         e.ID.String(),
		CampaignID: e.CampaignID.String(),
		EventType:  e.Type.String(),
		Timestamp:  e.Timestamp,
		IPAddress:  e.IPAddress,
		Browser:    e.Browser,
		Device:     e.Device,
		EventData:  e.EventData,
		IsUnique:   e.IsUnique,
		Processed:  e.Processed,
	}
	if e.TargetID != nil {
		id := e.TargetID.String()
		resp.TargetID = &id
	}
	return resp
}

// Events returns a filtered page of raw events for a campaign.
// GET /api/v1/campaigns/{id}/events
func (h *AnalyticsHandler) Events(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	page := parseQueryInt(r.URL.Query().Get("page"), 1)
	perPage := parseQueryInt(r.URL.Query().Get("per_page"), 20)

	filter := tracking.Filter{
		CampaignID: campaignID,
		Type:       tracking.EventType(r.URL.Query().Get("event_type")),
	}
	if tid := r.URL.Query().Get("target_id"); tid != "" {
		targetID, err := shared.IDFromString(tid)
		if err != nil {
			apierror.BadRequest("Invalid target id").WriteJSON(w)
			return
		}
		filter.TargetID = &targetID
	}

	result, err := h.tracking.ListEvents(r.Context(), filter, pagination.New(page, perPage))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items := make([]EventResponse, 0, len(result.Data))
	for _, e := range result.Data {
		items = append(items, toEventResponse(e))
	}

	resp := map[string]any{
		"items":    items,
		"total":    result.Total,
		"page":     result.Page,
		"per_page": result.PerPage,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Hourly returns per-hour event counts for a trailing window.
// GET /api/v1/campaigns/{id}/activity/hourly
func (h *AnalyticsHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	days := parseQueryInt(r.URL.Query().Get("days"), 7)

	buckets, err := h.tracking.HourlyActivity(r.Context(), campaignID, days)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	resp := map[string]any{
		"items": buckets,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Devices returns the device-type distribution of a campaign's
// events.
// GET /api/v1/campaigns/{id}/devices
func (h *AnalyticsHandler) Devices(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	out, err := h.tracking.DeviceStats(r.Context(), campaignID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
