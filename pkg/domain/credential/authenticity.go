package credential

import (
	"regexp"
	"strings"
)

// suspiciousPatterns mark a credential as test/fake when either the
// username or password matches.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^test.*test$`),
	regexp.MustCompile(`^fake.*fake$`),
	regexp.MustCompile(`^admin.*admin$`),
	regexp.MustCompile(`^demo.*demo$`),
	regexp.MustCompile(`^example.*example$`),
	regexp.MustCompile(`^sample.*sample$`),
}

var (
	simplePasswordParts = []string{"123", "1234", "pass", "admin", "test", "demo"}
	genericUsernames    = []string{"test", "admin", "user", "demo", "example", "sample"}
	testWords           = []string{"test", "fake", "demo", "example", "sample"}
)

// AuthenticityCheck is the result of checking whether a captured
// credential looks real or like a test/fake entry.
type AuthenticityCheck struct {
	IsReal     bool     `json:"is_real"`
	Confidence int      `json:"confidence"` // 0..100
	Issues     []string `json:"issues"`
}

// CheckAuthenticity applies every heuristic rule to the pair; rules
// accumulate independently and are not short-circuited. Only the
// pattern-match and identical-pair rules flip IsReal.
func CheckAuthenticity(username, password string) AuthenticityCheck {
	check := AuthenticityCheck{IsReal: true, Confidence: 100}

	userLower := strings.ToLower(username)
	passLower := strings.ToLower(password)

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(userLower) || pattern.MatchString(passLower) {
			check.Issues = append(check.Issues, "suspicious pattern detected: "+pattern.String())
			check.IsReal = false
			check.Confidence -= 30
		}
	}

	if userLower == passLower {
		check.Issues = append(check.Issues, "username and password are identical")
		check.IsReal = false
		check.Confidence -= 25
	}

	if containsAny(passLower, simplePasswordParts) {
		check.Issues = append(check.Issues, "password is too simple/generic")
		check.Confidence -= 20
	}

	for _, generic := range genericUsernames {
		if userLower == generic {
			check.Issues = append(check.Issues, "username is too generic")
			check.Confidence -= 15
			break
		}
	}

	if len(password) < 4 {
		check.Issues = append(check.Issues, "password is extremely short")
		check.Confidence -= 20
	}

	if containsAny(userLower, testWords) || containsAny(passLower, testWords) {
		check.Issues = append(check.Issues, "contains test/demo words")
		check.Confidence -= 25
	}

	if check.Confidence < 0 {
		check.Confidence = 0
	}
	return check
}

func containsAny(s string, parts []string) bool {
	for _, part := range parts {
		if strings.Contains(s, part) {
			return true
		}
	}
	return false
}
