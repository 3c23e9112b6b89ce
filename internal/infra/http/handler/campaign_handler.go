package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
	"github.com/phishsim/api/pkg/validator"
)

// CampaignHandler handles HTTP requests for campaigns.
type CampaignHandler struct {
	service   *app.CampaignService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(service *app.CampaignService, v *validator.Validator, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		service:   service,
		validator: v,
		logger:    log.With("handler", "campaign"),
	}
}

// CampaignResponse is the wire shape of a campaign.
type CampaignResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	AutoStart   bool       `json:"auto_start"`
	TrackOpens  bool       `json:"track_opens"`
	TrackClicks bool       `json:"track_clicks"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

func toCampaignResponse(c *campaign.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type.String(),
		Status:      c.Status.String(),
		AutoStart:   c.AutoStart,
		TrackOpens:  c.TrackOpens,
		TrackClicks: c.TrackClicks,
		ScheduledAt: c.ScheduledAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		StartedAt:   c.StartedAt,
		EndedAt:     c.EndedAt,
	}
}

// Create creates a draft campaign.
// POST /api/v1/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCampaignResponse(c))
}

// List lists campaigns with optional status/type/search filters.
// GET /api/v1/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parseQueryInt(r.URL.Query().Get("page"), 1)
	perPage := parseQueryInt(r.URL.Query().Get("per_page"), 20)

	filter := campaign.Filter{
		Status: campaign.Status(r.URL.Query().Get("status")),
		Type:   campaign.Type(r.URL.Query().Get("type")),
		Search: r.URL.Query().Get("search"),
	}

	result, err := h.service.List(r.Context(), filter, pagination.New(page, perPage))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items := make([]CampaignResponse, 0, len(result.Data))
	for _, c := range result.Data {
		items = append(items, toCampaignResponse(c))
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

// Get returns a campaign by ID.
// GET /api/v1/campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCampaignResponse(c))
}

// Stats returns the aggregated rollup of a campaign.
// GET /api/v1/campaigns/{id}/stats
func (h *CampaignHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Update applies a partial update to a campaign.
// PATCH /api/v1/campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	var req app.UpdateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCampaignResponse(c))
}

// Delete removes a campaign and, via cascade, everything it owns.
// DELETE /api/v1/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Start launches a campaign.
// POST /api/v1/campaigns/{id}/start
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

// Pause pauses an active campaign.
// POST /api/v1/campaigns/{id}/pause
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pause)
}

// Resume resumes a paused campaign.
// POST /api/v1/campaigns/{id}/resume
func (h *CampaignHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resume)
}

// Complete ends a campaign.
// POST /api/v1/campaigns/{id}/complete
func (h *CampaignHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *CampaignHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id shared.ID) (*campaign.Campaign, error),
) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	c, err := op(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCampaignResponse(c))
}
