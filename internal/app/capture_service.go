package app

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/phishsim/api/internal/metrics"
	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
)

// CaptureService orchestrates credential captures: validate, analyze,
// persist, update target state, emit tracking events and alert on
// suspicious scores.
type CaptureService struct {
	campaignRepo   campaign.Repository
	targetRepo     target.Repository
	credentialRepo credential.Repository
	tracker        *TrackingService
	logger         *logger.Logger
}

// NewCaptureService creates a new CaptureService.
func NewCaptureService(
	campaignRepo campaign.Repository,
	targetRepo target.Repository,
	credentialRepo credential.Repository,
	tracker *TrackingService,
	log *logger.Logger,
) *CaptureService {
	return &CaptureService{
		campaignRepo:   campaignRepo,
		targetRepo:     targetRepo,
		credentialRepo: credentialRepo,
		tracker:        tracker,
		logger:         log.With("service", "capture"),
	}
}

// CaptureInput is one submitted credential pair with its client
// context.
type CaptureInput struct {
	CampaignID     string            `json:"campaign_id" validate:"required,uuid"`
	TargetID       string            `json:"target_id" validate:"required,uuid"`
	Username       string            `json:"username" validate:"required"`
	Password       string            `json:"password" validate:"required"`
	AdditionalData map[string]string `json:"additional_data"`

	Context credential.CaptureContext `json:"-"`
}

// CaptureOutput is the safe result returned to the capture endpoint.
// The raw password never appears here.
type CaptureOutput struct {
	CredentialID    string              `json:"credential_id"`
	IsDuplicate     bool                `json:"is_duplicate"`
	Analysis        credential.Analysis `json:"analysis"`
	Recommendations []string            `json:"recommendations"`
}

// Capture runs the full capture pipeline. Duplicate submissions are
// stored as additional rows; only the first capture for a (campaign,
// target) pair flips the target's entered_credentials flag.
func (s *CaptureService) Capture(ctx context.Context, input CaptureInput) (*CaptureOutput, error) {
	campaignID, err := shared.IDFromString(input.CampaignID)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", "invalid campaign id", shared.ErrValidation)
	}
	targetID, err := shared.IDFromString(input.TargetID)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", "invalid target id", shared.ErrValidation)
	}

	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	tgt, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, shared.NewDomainError("VALIDATION", "username and password are required", shared.ErrValidation)
	}

	isDuplicate, err := s.credentialRepo.ExistsForTarget(ctx, campaignID, targetID)
	if err != nil {
		return nil, err
	}

	analysis := credential.Analyze(username, password)

	cred := credential.NewCredential(campaignID, targetID, username, password, analysis, input.Context)
	if len(input.AdditionalData) > 0 {
		cred.FormData = input.AdditionalData
	}
	if err := s.credentialRepo.Create(ctx, cred); err != nil {
		return nil, err
	}

	if !isDuplicate {
		tgt.MarkCredentialsEntered()
		if err := s.targetRepo.Update(ctx, tgt); err != nil {
			s.logger.Warn("failed to update target after capture",
				"target_id", targetID.String(),
				"error", err,
			)
		}
	}

	s.emitCaptureEvents(ctx, input, cred, analysis, isDuplicate)

	if analysis.RiskScore > credential.SuspiciousThreshold {
		s.alertSuspicious(tgt, cred, analysis)
	}

	metrics.CredentialsCapturedTotal.WithLabelValues(
		strconv.FormatBool(analysis.FlaggedForReview),
		strconv.FormatBool(isDuplicate),
	).Inc()
	metrics.CredentialRiskScore.Observe(float64(analysis.RiskScore))

	if analysis.RiskScore > credential.ReviewThreshold {
		s.logger.Warn("credentials captured",
			"credential_id", cred.ID.String(),
			"target_email", tgt.Email,
			"risk_score", analysis.RiskScore,
			"strength", analysis.PasswordStrength.String(),
		)
	} else {
		s.logger.Info("credentials captured",
			"credential_id", cred.ID.String(),
			"target_email", tgt.Email,
			"risk_score", analysis.RiskScore,
			"strength", analysis.PasswordStrength.String(),
		)
	}

	return &CaptureOutput{
		CredentialID:    cred.ID.String(),
		IsDuplicate:     isDuplicate,
		Analysis:        analysis,
		Recommendations: analysis.Recommendations(),
	}, nil
}

// emitCaptureEvents records the generic form_submitted event and the
// credentials_entered event carrying the analysis summary. Neither
// carries the raw password. Event failures do not fail the capture;
// the credential row is already durable.
func (s *CaptureService) emitCaptureEvents(ctx context.Context, input CaptureInput, cred *credential.Credential, analysis credential.Analysis, isDuplicate bool) {
	reqCtx := tracking.RequestContext{
		IPAddress: input.Context.IPAddress,
		UserAgent: input.Context.UserAgent,
		Referrer:  input.Context.Referrer,
		SessionID: input.Context.SessionID,
	}

	if _, err := s.tracker.RecordEvent(ctx, RecordEventInput{
		CampaignID: input.CampaignID,
		TargetID:   input.TargetID,
		EventType:  tracking.EventFormSubmitted.String(),
		EventData:  map[string]string{"form_type": "login"},
		Context:    reqCtx,
	}); err != nil {
		s.logger.Warn("failed to record form_submitted event", "error", err)
	}

	if _, err := s.tracker.RecordEvent(ctx, RecordEventInput{
		CampaignID: input.CampaignID,
		TargetID:   input.TargetID,
		EventType:  tracking.EventCredentialsEntered.String(),
		EventData: map[string]string{
			"credential_id":     cred.ID.String(),
			"password_strength": analysis.PasswordStrength.String(),
			"risk_score":        strconv.Itoa(analysis.RiskScore),
			"is_duplicate":      strconv.FormatBool(isDuplicate),
			"analysis_summary":  analysis.Summary,
		},
		Context: reqCtx,
	}); err != nil {
		s.logger.Warn("failed to record credentials_entered event", "error", err)
	}
}

// alertSuspicious emits the out-of-band suspicious-activity alert.
// Log-level side effect only, no retry or queue.
func (s *CaptureService) alertSuspicious(tgt *target.Target, cred *credential.Credential, analysis credential.Analysis) {
	metrics.SuspiciousAlertsTotal.Inc()
	s.logger.Warn("suspicious activity alert",
		"credential_id", cred.ID.String(),
		"target_email", tgt.Email,
		"risk_score", analysis.RiskScore,
		"issues", strings.Join(analysis.Issues, "; "),
		"ip_address", cred.IPAddress,
	)
}

// TopPassword is one most-used password in the rollup. Only the
// masked form leaves the service.
type TopPassword struct {
	Masked string `json:"masked"`
	Count  int    `json:"count"`
}

// CampaignAnalysisOutput is the capture rollup for one campaign.
type CampaignAnalysisOutput struct {
	CampaignID        string                       `json:"campaign_id"`
	TotalCaptures     int                          `json:"total_captures"`
	UniqueTargets     int                          `json:"unique_targets"`
	AverageRiskScore  float64                      `json:"average_risk_score"`
	FlaggedForReview  int                          `json:"flagged_for_review"`
	CommonPasswords   int                          `json:"common_passwords"`
	HighRiskCount     int                          `json:"high_risk_count"`
	StrengthBreakdown credential.StrengthBreakdown `json:"strength_breakdown"`
	TopPasswords      []TopPassword                `json:"top_passwords"`
	Recommendations   []string                     `json:"recommendations"`
}

// CampaignAnalysis aggregates the captured credentials of a campaign.
func (s *CaptureService) CampaignAnalysis(ctx context.Context, campaignID shared.ID) (*CampaignAnalysisOutput, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	total, err := s.credentialRepo.CountByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	uniqueTargets, err := s.credentialRepo.CountDistinctTargets(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	avgRisk, err := s.credentialRepo.AverageRiskScore(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	flagged, err := s.credentialRepo.CountFlagged(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.credentialRepo.StrengthBreakdown(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	common, err := s.credentialRepo.CountCommon(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	highRisk, err := s.credentialRepo.CountHighRisk(ctx, campaignID, credential.ReviewThreshold)
	if err != nil {
		return nil, err
	}
	topRaw, err := s.credentialRepo.TopPasswords(ctx, campaignID, 10)
	if err != nil {
		return nil, err
	}

	top := make([]TopPassword, 0, len(topRaw))
	for _, pc := range topRaw {
		top = append(top, TopPassword{
			Masked: strings.Repeat("*", utf8.RuneCountInString(pc.Password)),
			Count:  pc.Count,
		})
	}

	return &CampaignAnalysisOutput{
		CampaignID:        campaignID.String(),
		TotalCaptures:     total,
		UniqueTargets:     uniqueTargets,
		AverageRiskScore:  avgRisk,
		FlaggedForReview:  flagged,
		CommonPasswords:   common,
		HighRiskCount:     highRisk,
		StrengthBreakdown: breakdown,
		TopPasswords:      top,
		Recommendations:   campaignRecommendations(total, breakdown, common, highRisk),
	}, nil
}

// campaignRecommendations derives training guidance from the capture
// rollup. Thresholds are fractions of the total capture count.
func campaignRecommendations(total int, breakdown credential.StrengthBreakdown, common, highRisk int) []string {
	if total == 0 {
		return nil
	}

	var recs []string
	weak := breakdown[credential.StrengthVeryWeak] + breakdown[credential.StrengthWeak]
	if float64(weak)/float64(total) > 0.7 {
		recs = append(recs, "70%+ of captured passwords are weak, focus on password strength training")
	}
	if float64(common)/float64(total) > 0.3 {
		recs = append(recs, "30%+ use common passwords, educate about password uniqueness")
	}
	if float64(highRisk)/float64(total) > 0.2 {
		recs = append(recs, "20%+ are high-risk credentials, manual review recommended")
	}
	return recs
}
