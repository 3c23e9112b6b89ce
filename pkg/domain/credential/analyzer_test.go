package credential

import "testing"

func TestAnalyzePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		strength Strength
		score    int
		isCommon bool
	}{
		{"empty", "", StrengthVeryWeak, 0, false},
		{"short lowercase", "abc", StrengthVeryWeak, 1, false},
		{"lower and digits", "abc12345", StrengthWeak, 3, false},
		{"mixed case digits", "Abc12345", StrengthMedium, 4, false},
		{"strong", "Tr0ub4dor&9", StrengthStrong, 5, false},
		{"very strong", "Tr0ub4dor&3xtra!", StrengthVeryStrong, 6, false},
		{"common short", "admin", StrengthVeryWeak, 1, true},
		{"common overrides complexity", "qwerty123", StrengthVeryWeak, 3, true},
		{"common case-insensitive", "PASSWORD", StrengthVeryWeak, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzePassword(tt.password)
			if got.Strength != tt.strength {
				t.Errorf("strength = %q, want %q", got.Strength, tt.strength)
			}
			if got.Score != tt.score {
				t.Errorf("score = %d, want %d", got.Score, tt.score)
			}
			if got.IsCommon != tt.isCommon {
				t.Errorf("isCommon = %v, want %v", got.IsCommon, tt.isCommon)
			}
		})
	}
}

func TestAnalyzePassword_CommonListAlwaysVeryWeak(t *testing.T) {
	for pw := range commonPasswords {
		got := AnalyzePassword(pw)
		if got.Strength != StrengthVeryWeak || !got.IsCommon {
			t.Errorf("%q: strength=%q isCommon=%v, want very_weak/true", pw, got.Strength, got.IsCommon)
		}
	}
}

func TestAnalyzePassword_Idempotent(t *testing.T) {
	for _, pw := range []string{"", "admin", "Tr0ub4dor&9", "abc123xy"} {
		first := AnalyzePassword(pw)
		second := AnalyzePassword(pw)
		if first != second {
			t.Errorf("%q: repeated analysis differs: %+v vs %+v", pw, first, second)
		}
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		username string
		want     Type
	}{
		{"revolut_user", TypeBanking},
		{"my-bank-login", TypeBanking},
		{"jane@gmail.com", TypePersonalEmail},
		{"jane@hotmail.com", TypePersonalEmail},
		{"jane@corp.com", TypeWorkEmail},
		{"facebook_jane", TypeSocialMedia},
		{"admin", TypeWork},
		{"staff42", TypeWork},
		{"jane1984", TypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := DetectType(tt.username); got != tt.want {
				t.Errorf("DetectType(%q) = %q, want %q", tt.username, got, tt.want)
			}
		})
	}
}
