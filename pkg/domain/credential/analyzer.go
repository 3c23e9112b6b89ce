package credential

import (
	"strings"
	"unicode"
)

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// commonPasswords force very_weak regardless of complexity score.
var commonPasswords = map[string]struct{}{
	"password":  {},
	"123456":    {},
	"123456789": {},
	"qwerty":    {},
	"abc123":    {},
	"password1": {},
	"admin":     {},
	"letmein":   {},
	"welcome":   {},
	"monkey":    {},
	"dragon":    {},
	"master":    {},
	"shadow":    {},
	"qwerty123": {},
	"football":  {},
}

// PasswordAnalysis is the result of analyzing a single password.
type PasswordAnalysis struct {
	Strength Strength `json:"strength"`
	Score    int      `json:"score"` // 0..6
	IsCommon bool     `json:"is_common"`
}

// AnalyzePassword scores a password on length and character classes
// and checks it against the common-password list. A common password is
// always very_weak even when it scores well on complexity.
func AnalyzePassword(password string) PasswordAnalysis {
	if password == "" {
		return PasswordAnalysis{Strength: StrengthVeryWeak}
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}
	if hasLower {
		score++
	}
	if hasUpper {
		score++
	}
	if hasDigit {
		score++
	}
	if hasSpecial {
		score++
	}

	analysis := PasswordAnalysis{Score: score, Strength: strengthForScore(score)}

	if _, common := commonPasswords[strings.ToLower(password)]; common {
		analysis.IsCommon = true
		analysis.Strength = StrengthVeryWeak
	}
	return analysis
}

func strengthForScore(score int) Strength {
	switch {
	case score <= 2:
		return StrengthVeryWeak
	case score == 3:
		return StrengthWeak
	case score == 4:
		return StrengthMedium
	case score == 5:
		return StrengthStrong
	default:
		return StrengthVeryStrong
	}
}

// DetectType infers the account type from the username.
func DetectType(username string) Type {
	lower := strings.ToLower(username)

	for _, kw := range []string{"revolut", "bank", "card", "payment", "finance"} {
		if strings.Contains(lower, kw) {
			return TypeBanking
		}
	}

	if at := strings.LastIndex(username, "@"); at >= 0 {
		domain := strings.ToLower(username[at+1:])
		switch domain {
		case "gmail.com", "yahoo.com", "outlook.com", "hotmail.com":
			return TypePersonalEmail
		}
		return TypeWorkEmail
	}

	for _, kw := range []string{"facebook", "twitter", "linkedin", "instagram", "social"} {
		if strings.Contains(lower, kw) {
			return TypeSocialMedia
		}
	}

	for _, kw := range []string{"admin", "user", "employee", "staff"} {
		if strings.Contains(lower, kw) {
			return TypeWork
		}
	}

	return TypeGeneral
}
