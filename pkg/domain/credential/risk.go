package credential

const (
	// ReviewThreshold flags a credential for manual review.
	ReviewThreshold = 70
	// SuspiciousThreshold downgrades the authenticity verdict and
	// triggers the out-of-band alert.
	SuspiciousThreshold = 80

	maxRecommendations = 3
)

// Analysis is the full derived assessment of a captured credential.
type Analysis struct {
	PasswordStrength Strength          `json:"password_strength"`
	StrengthScore    int               `json:"strength_score"`
	IsCommonPassword bool              `json:"is_common_password"`
	CredentialType   Type              `json:"credential_type"`
	IsRealCredential bool              `json:"is_real_credential"`
	Confidence       int               `json:"confidence"`
	Issues           []string          `json:"issues,omitempty"`
	RiskScore        int               `json:"risk_score"`
	FlaggedForReview bool              `json:"flagged_for_review"`
	Summary          string            `json:"summary"`
}

// Analyze runs the full pipeline: password strength, authenticity,
// risk score, then the final authenticity override. The ordering is
// deliberate and must not be iterated to a fixed point: authenticity
// feeds the score, and a score above SuspiciousThreshold then flips
// the authenticity verdict as a last step.
func Analyze(username, password string) Analysis {
	pw := AnalyzePassword(password)
	auth := CheckAuthenticity(username, password)

	a := Analysis{
		PasswordStrength: pw.Strength,
		StrengthScore:    pw.Score,
		IsCommonPassword: pw.IsCommon,
		CredentialType:   DetectType(username),
		IsRealCredential: auth.IsReal,
		Confidence:       auth.Confidence,
		Issues:           auth.Issues,
	}

	a.RiskScore = scoreRisk(username, password, a)

	a.FlaggedForReview = a.RiskScore > ReviewThreshold || a.IsCommonPassword || !a.IsRealCredential

	if a.RiskScore > SuspiciousThreshold {
		a.IsRealCredential = false
	}

	a.Summary = summarize(a)
	return a
}

func scoreRisk(username, password string, a Analysis) int {
	risk := 0
	if !a.IsRealCredential {
		risk += 40
	}
	risk += riskContribution[a.PasswordStrength]
	if a.IsCommonPassword {
		risk += 25
	}
	if username == password {
		risk += 30
	}
	if len(password) < 4 {
		risk += 20
	}
	if risk > 100 {
		risk = 100
	}
	return risk
}

func summarize(a Analysis) string {
	strength := a.PasswordStrength.String()
	switch {
	case a.RiskScore > 80:
		return "HIGH RISK: " + strength + " password, likely test credential"
	case a.RiskScore > 50:
		return "MEDIUM RISK: " + strength + " password, some concerns"
	case a.RiskScore > 20:
		return "LOW RISK: " + strength + " password, appears genuine"
	default:
		return "MINIMAL RISK: " + strength + " password, high confidence"
	}
}

// Recommendations derives at most three security recommendations from
// the analysis, most specific first.
func (a Analysis) Recommendations() []string {
	var recs []string
	if a.PasswordStrength == StrengthVeryWeak || a.PasswordStrength == StrengthWeak {
		recs = append(recs, "Use a stronger password with at least 8 characters")
	}
	if a.IsCommonPassword {
		recs = append(recs, "Avoid using common passwords")
	}
	if !a.IsRealCredential {
		recs = append(recs, "This appears to be a test credential - verify authenticity")
	}
	if a.RiskScore > ReviewThreshold {
		recs = append(recs, "Manual review recommended due to high risk score")
	}
	recs = append(recs,
		"Use unique passwords for each account",
		"Enable two-factor authentication when available",
	)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
