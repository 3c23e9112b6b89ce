// Package credential implements the capture analysis pipeline:
// password strength scoring, authenticity checking and risk scoring.
package credential

// Strength classifies a password's resistance to guessing.
type Strength string

const (
	StrengthVeryWeak   Strength = "very_weak"
	StrengthWeak       Strength = "weak"
	StrengthMedium     Strength = "medium"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// riskContribution orders strengths for risk scoring. Weaker
// passwords contribute more.
var riskContribution = map[Strength]int{
	StrengthVeryWeak:   30,
	StrengthWeak:       20,
	StrengthMedium:     10,
	StrengthStrong:     5,
	StrengthVeryStrong: 0,
}

// IsValid reports whether s is a known strength level.
func (s Strength) IsValid() bool {
	_, ok := riskContribution[s]
	return ok
}

func (s Strength) String() string { return string(s) }

// Type classifies what kind of account a captured credential appears
// to belong to, inferred from the username.
type Type string

const (
	TypeBanking       Type = "banking"
	TypePersonalEmail Type = "personal_email"
	TypeWorkEmail     Type = "work_email"
	TypeSocialMedia   Type = "social_media"
	TypeWork          Type = "work"
	TypeGeneral       Type = "general"
)

func (t Type) String() string { return string(t) }
