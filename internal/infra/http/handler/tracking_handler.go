package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/internal/metrics"
	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/validator"
)

// transparentGIF is a 1x1 transparent GIF served by the open-tracking
// pixel.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21,
	0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2C, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
	0x01, 0x00, 0x3B,
}

// TrackingHandler serves the public tracking surface mounted at /t.
// The pixel and click endpoints fail open: whatever goes wrong
// internally, the browser still gets its GIF or its redirect, because
// a broken lure would tip off the target.
type TrackingHandler struct {
	tracking        *app.TrackingService
	capture         *app.CaptureService
	validator       *validator.Validator
	defaultRedirect string
	logger          *logger.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(
	trackingSvc *app.TrackingService,
	captureSvc *app.CaptureService,
	v *validator.Validator,
	defaultRedirect string,
	log *logger.Logger,
) *TrackingHandler {
	return &TrackingHandler{
		tracking:        trackingSvc,
		capture:         captureSvc,
		validator:       v,
		defaultRedirect: defaultRedirect,
		logger:          log.With("handler", "tracking"),
	}
}

// Pixel records an email open and serves the tracking pixel.
// GET /t/pixel?c={campaignID}&t={targetID}
func (h *TrackingHandler) Pixel(w http.ResponseWriter, r *http.Request) {
	h.recordQueryEvent(r, tracking.EventEmailOpened, "pixel")

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentGIF)
}

// Click records a link click and redirects to the landing
// destination.
// GET /t/click?c={campaignID}&t={targetID}
func (h *TrackingHandler) Click(w http.ResponseWriter, r *http.Request) {
	h.recordQueryEvent(r, tracking.EventLinkClicked, "click")

	http.Redirect(w, r, h.defaultRedirect, http.StatusFound)
}

// trackRequest is the body of the page/form tracking posts.
type trackRequest struct {
	CampaignID string            `json:"campaign_id" validate:"required,uuid"`
	TargetID   string            `json:"target_id" validate:"omitempty,uuid"`
	EventData  map[string]string `json:"event_data"`
}

// Page records a landing-page visit.
// POST /t/page
func (h *TrackingHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.recordPostedEvent(w, r, tracking.EventPageVisited)
}

// Form records that the login form was rendered.
// POST /t/form
func (h *TrackingHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.recordPostedEvent(w, r, tracking.EventFormViewed)
}

// submitRequest is the credential submission body.
type submitRequest struct {
	CampaignID     string            `json:"campaign_id" validate:"required,uuid"`
	TargetID       string            `json:"target_id" validate:"required,uuid"`
	Username       string            `json:"username" validate:"required"`
	Password       string            `json:"password" validate:"required"`
	AdditionalData map[string]string `json:"additional_data"`
}

// Submit runs the credential capture pipeline. Unlike the pixel and
// click endpoints this one reports its errors: the decoy form needs to
// know whether the submission was accepted.
// POST /t/submit
func (h *TrackingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	out, err := h.capture.Capture(r.Context(), app.CaptureInput{
		CampaignID:     req.CampaignID,
		TargetID:       req.TargetID,
		Username:       req.Username,
		Password:       req.Password,
		AdditionalData: req.AdditionalData,
		Context: credential.CaptureContext{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
			SessionID: r.Header.Get("X-Session-ID"),
			PageURL:   r.Header.Get("X-Page-URL"),
		},
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// recordQueryEvent records an event identified by the c/t query
// parameters. It never fails the request; failures only surface as
// metrics and logs.
func (h *TrackingHandler) recordQueryEvent(r *http.Request, eventType tracking.EventType, endpoint string) {
	campaignID := r.URL.Query().Get("c")
	targetID := r.URL.Query().Get("t")
	if campaignID == "" {
		metrics.TrackingFailuresTotal.WithLabelValues(endpoint).Inc()
		return
	}

	if _, err := h.tracking.RecordEvent(r.Context(), app.RecordEventInput{
		CampaignID: campaignID,
		TargetID:   targetID,
		EventType:  eventType.String(),
		Context:    h.requestContext(r),
	}); err != nil {
		metrics.TrackingFailuresTotal.WithLabelValues(endpoint).Inc()
		h.logger.Warn("tracking event failed",
			"endpoint", endpoint,
			"campaign_id", campaignID,
			"error", err,
		)
	}
}

// recordPostedEvent records an event posted as JSON and acknowledges
// it.
func (h *TrackingHandler) recordPostedEvent(w http.ResponseWriter, r *http.Request, eventType tracking.EventType) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	event, err := h.tracking.RecordEvent(r.Context(), app.RecordEventInput{
		CampaignID: req.CampaignID,
		TargetID:   req.TargetID,
		EventType:  eventType.String(),
		EventData:  req.EventData,
		Context:    h.requestContext(r),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	resp := map[string]any{
		"status":   "ok",
		"event_id": event.ID.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TrackingHandler) requestContext(r *http.Request) tracking.RequestContext {
	return tracking.RequestContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		SessionID: r.Header.Get("X-Session-ID"),
	}
}

// clientIP returns RemoteAddr without the port. The router's RealIP
// middleware has already resolved proxy headers.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		return ip[:idx]
	}
	return ip
}
