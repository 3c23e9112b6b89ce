package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
)

// CredentialHandler handles HTTP requests for captured credentials.
// The admin views expose analysis fields and the hash; the raw
// password never leaves the credential store.
type CredentialHandler struct {
	service        *app.CaptureService
	credentialRepo credential.Repository
	logger         *logger.Logger
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(service *app.CaptureService, repo credential.Repository, log *logger.Logger) *CredentialHandler {
	return &CredentialHandler{
		service:        service,
		credentialRepo: repo,
		logger:         log.With("handler", "credential"),
	}
}

// CredentialResponse is the admin wire shape of a capture. Password is
// replaced by its SHA-256 digest.
type CredentialResponse struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	TargetID   string `json:"target_id"`

	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`

	CapturedAt time.Time `json:"captured_at"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`

	PasswordStrength string `json:"password_strength"`
	IsCommonPassword bool   `json:"is_common_password"`
	CredentialType   string `json:"credential_type"`
	IsRealCredential bool   `json:"is_real_credential"`
	RiskScore        int    `json:"risk_score"`
	FlaggedForReview bool   `json:"flagged_for_review"`

	Processed bool `json:"processed"`
	Notified  bool `json:"notified"`
}

func toCredentialResponse(c *credential.Credential) CredentialResponse {
	return CredentialResponse{
		ID:               c.ID.String(),
		CampaignID:       c.CampaignID.String(),
		TargetID:         c.TargetID.String(),
		Username:         c.Username,
		PasswordHash:     c.PasswordHash,
		CapturedAt:       c.CapturedAt,
		IPAddress:        c.IPAddress,
		UserAgent:        c.UserAgent,
		PasswordStrength: c.PasswordStrength.String(),
		IsCommonPassword: c.IsCommonPassword,
		CredentialType:   string(c.CredentialType),
		IsRealCredential: c.IsRealCredential,
		RiskScore:        c.RiskScore,
		FlaggedForReview: c.FlaggedForReview,
		Processed:        c.Processed,
		Notified:         c.Notified,
	}
}

// List lists captured credentials of a campaign with optional
// flagged/min_risk/target_id filters.
// GET /api/v1/campaigns/{id}/credentials
func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	page := parseQueryInt(r.URL.Query().Get("page"), 1)
	perPage := parseQueryInt(r.URL.Query().Get("per_page"), 50)

	filter := credential.Filter{
		CampaignID: campaignID,
		Flagged:    parseQueryBool(r.URL.Query().Get("flagged")),
		MinRisk:    parseQueryIntPtr(r.URL.Query().Get("min_risk")),
	}
	if raw := r.URL.Query().Get("target_id"); raw != "" {
		targetID, err := shared.IDFromString(raw)
		if err != nil {
			apierror.BadRequest("Invalid target id").WriteJSON(w)
			return
		}
		filter.TargetID = &targetID
	}

	result, err := h.credentialRepo.List(r.Context(), filter, pagination.New(page, perPage))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items := make([]CredentialResponse, 0, len(result.Data))
	for _, c := range result.Data {
		items = append(items, toCredentialResponse(c))
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

// Get returns a captured credential by ID.
// GET /api/v1/credentials/{id}
func (h *CredentialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid credential id").WriteJSON(w)
		return
	}

	c, err := h.credentialRepo.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCredentialResponse(c))
}

// Analysis returns the capture rollup of a campaign.
// GET /api/v1/campaigns/{id}/credentials/analysis
func (h *CredentialHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	campaignID, err := shared.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid campaign id").WriteJSON(w)
		return
	}

	out, err := h.service.CampaignAnalysis(r.Context(), campaignID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
