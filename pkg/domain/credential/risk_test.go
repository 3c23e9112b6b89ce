package credential

import "testing"

func TestAnalyze_AdminAdmin(t *testing.T) {
	a := Analyze("admin", "admin")

	if a.IsRealCredential {
		t.Error("expected is_real_credential=false")
	}
	if a.PasswordStrength != StrengthVeryWeak {
		t.Errorf("strength = %q, want very_weak", a.PasswordStrength)
	}
	if !a.IsCommonPassword {
		t.Error("expected is_common_password=true")
	}
	if a.RiskScore != 100 {
		t.Errorf("risk = %d, want 100 (clamped)", a.RiskScore)
	}
	if !a.FlaggedForReview {
		t.Error("expected flagged_for_review=true")
	}
}

func TestAnalyze_StrongCredential(t *testing.T) {
	a := Analyze("j.doe@corp.com", "Tr0ub4dor&9")

	if a.IsCommonPassword {
		t.Error("expected is_common_password=false")
	}
	if a.PasswordStrength != StrengthStrong && a.PasswordStrength != StrengthVeryStrong {
		t.Errorf("strength = %q, want strong or very_strong", a.PasswordStrength)
	}
	if a.RiskScore >= ReviewThreshold {
		t.Errorf("risk = %d, want well below %d", a.RiskScore, ReviewThreshold)
	}
	if a.FlaggedForReview {
		t.Error("expected flagged_for_review=false")
	}
	if !a.IsRealCredential {
		t.Error("expected is_real_credential=true")
	}
}

func TestAnalyze_RiskClamped(t *testing.T) {
	// Every heuristic fires at once.
	a := Analyze("test", "test")
	if a.RiskScore < 0 || a.RiskScore > 100 {
		t.Errorf("risk = %d, want within [0,100]", a.RiskScore)
	}
}

func TestAnalyze_StrengthContributionMonotonic(t *testing.T) {
	order := []Strength{StrengthVeryWeak, StrengthWeak, StrengthMedium, StrengthStrong, StrengthVeryStrong}
	for i := 1; i < len(order); i++ {
		if riskContribution[order[i]] > riskContribution[order[i-1]] {
			t.Errorf("contribution for %s (%d) exceeds weaker %s (%d)",
				order[i], riskContribution[order[i]], order[i-1], riskContribution[order[i-1]])
		}
	}
}

func TestAnalyze_FlagPolicy(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		flagged  bool
	}{
		{"high risk flags", "admin", "admin", true},
		{"common password flags despite low risk", "j.doe@corp.com", "Football", true},
		{"fake credential flags", "demodemo", "S0mething&Long!x", true},
		{"clean stays unflagged", "j.doe@corp.com", "Tr0ub4dor&9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.username, tt.password)
			want := a.RiskScore > ReviewThreshold || a.IsCommonPassword || !a.IsRealCredential
			if a.FlaggedForReview != want {
				t.Errorf("flag policy violated: flagged=%v risk=%d common=%v real=%v",
					a.FlaggedForReview, a.RiskScore, a.IsCommonPassword, a.IsRealCredential)
			}
			if a.FlaggedForReview != tt.flagged {
				t.Errorf("flagged = %v, want %v (risk=%d)", a.FlaggedForReview, tt.flagged, a.RiskScore)
			}
		})
	}
}

func TestAnalyze_HighScoreDowngradesAuthenticity(t *testing.T) {
	// The pair passes the authenticity rules that flip is_real, but
	// the accumulated risk crosses the suspicious threshold and the
	// verdict is downgraded afterwards.
	a := Analyze("jane", "qwerty123")
	// very_weak (+30), common (+25), no other additions: risk 55, no
	// downgrade.
	if a.RiskScore != 55 {
		t.Errorf("risk = %d, want 55", a.RiskScore)
	}
	if !a.IsRealCredential {
		t.Error("downgrade must not fire below the threshold")
	}

	a = Analyze("abc", "abc")
	// identical pair: not real (+40), very_weak (+30), identical
	// (+30), short (+20) = 120 -> 100 > 80 keeps is_real false.
	if a.RiskScore != 100 {
		t.Errorf("risk = %d, want 100", a.RiskScore)
	}
	if a.IsRealCredential {
		t.Error("expected is_real_credential=false")
	}
}

func TestAnalysis_Recommendations(t *testing.T) {
	t.Run("capped at three", func(t *testing.T) {
		a := Analyze("admin", "admin")
		recs := a.Recommendations()
		if len(recs) > 3 {
			t.Errorf("got %d recommendations, want at most 3", len(recs))
		}
		if len(recs) == 0 {
			t.Error("high-risk capture should produce recommendations")
		}
	})

	t.Run("never empty", func(t *testing.T) {
		a := Analyze("j.doe@corp.com", "Tr0ub4dor&9")
		if len(a.Recommendations()) == 0 {
			t.Error("expected general recommendations")
		}
	})
}

func TestHashPassword(t *testing.T) {
	h := HashPassword("secret")
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h))
	}
	if h != HashPassword("secret") {
		t.Error("hash not deterministic")
	}
	if h == HashPassword("Secret") {
		t.Error("hash should differ for different inputs")
	}
}
