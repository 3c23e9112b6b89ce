package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
	"github.com/phishsim/api/pkg/validator"
)

// TargetHandler handles HTTP requests for campaign targets.
type TargetHandler struct {
	service   *app.TargetService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(service *app.TargetService, v *validator.Validator, log *logger.Logger) *TargetHandler {
	return &TargetHandler{
		service:   service,
		validator: v,
		logger:    log.With("handler", "target"),
	}
}

// TargetResponse is the wire shape of a target.
type TargetResponse struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Company    string `json:"company,omitempty"`
	Position   string `json:"position,omitempty"`
	Notes      string `json:"notes,omitempty"`

	EmailSent          bool `json:"email_sent"`
	SMSSent            bool `json:"sms_sent"`
	ClickedLink        bool `json:"clicked_link"`
	EnteredCredentials bool `json:"entered_credentials"`

	Status          string `json:"status"`
	EngagementScore int    `json:"engagement_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTargetResponse(t *target.Target) TargetResponse {
	return TargetResponse{
		ID:                 t.ID.String(),
		CampaignID:         t.CampaignID.String(),
		Email:              t.Email,
		Phone:              t.Phone,
		FirstName:          t.FirstName,
		LastName:           t.LastName,
		Company:            t.Company,
		Position:           t.Position,
		Notes:              t.Notes,
		EmailSent:          t.EmailSent,
		SMSSent:            t.SMSSent,
		ClickedLink:        t.ClickedLink,
		EnteredCredentials: t.EnteredCredentials,
		Status:             string(t.Status()),
		EngagementScore:    t.EngagementScore(),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

// Create adds a target to a campaign.
// POST /api/v1/targets
func (h *TargetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateTargetInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	t, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTargetResponse(t))
}

// List lists targets of a campaign with optional status/search
// filters.
// GET /api/v1/campaigns/{id}/targets
func (h *TargetHandler) List(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	page := parseQueryInt(r.URL.Query().Get("page"), 1)
	perPage := parseQueryInt(r.URL.Query().Get("per_page"), 50)

	filter := target.Filter{
		CampaignID: campaignID,
		Status:     target.Status(r.URL.Query().Get("status")),
		Search:     r.URL.Query().Get("search"),
	}

	result, err := h.service.List(r.Context(), filter, pagination.New(page, perPage))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items := make([]TargetResponse, 0, len(result.Data))
	for _, t := range result.Data {
		items = append(items, toTargetResponse(t))
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

// Get returns a target by ID.
// GET /api/v1/targets/{id}
func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid target id").WriteJSON(w)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTargetResponse(t))
}

// UpdateTargetRequest is the partial profile update body. Nil fields
// are left unchanged.
type UpdateTargetRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Company   *string `json:"company" validate:"omitempty,max=100"`
	Position  *string `json:"position" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

// Update applies a partial profile update.
// PATCH /api/v1/targets/{id}
func (h *TargetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid target id").WriteJSON(w)
		return
	}

	var req UpdateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	t, err := h.service.UpdateProfile(r.Context(), id, target.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Position:  req.Position,
		Phone:     req.Phone,
		Notes:     req.Notes,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTargetResponse(t))
}

// Delete removes a target.
// DELETE /api/v1/targets/{id}
func (h *TargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid target id").WriteJSON(w)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import bulk-imports targets from a CSV body. Rows are
// email,first_name,last_name,company,position,phone with an optional
// header.
// POST /api/v1/campaigns/{id}/targets/import
func (h *TargetHandler) Import(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	result, err := h.service.ImportCSV(r.Context(), campaignID, r.Body)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Export streams the campaign's targets as CSV.
// GET /api/v1/campaigns/{id}/targets/export
func (h *TargetHandler) Export(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="targets.csv"`)

	if err := h.service.ExportCSV(r.Context(), campaignID, w); err != nil {
		// Headers may already be out; log rather than switch to the
		// error envelope mid-stream.
		h.logger.Error("csv export failed", "campaign_id", campaignID.String(), "error", err)
	}
}
