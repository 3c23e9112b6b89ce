package credential

import (
	"reflect"
	"testing"
)

func TestCheckAuthenticity(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		isReal     bool
		confidence int
	}{
		{
			// No rules fire.
			"clean credential", "j.doe@corp.com", "Tr0ub4dor&9", true, 100,
		},
		{
			// Identical pair (-25) + simple "admin" in password (-20) +
			// generic username (-15).
			"admin admin", "admin", "admin", false, 40,
		},
		{
			// Pattern ^test.*test$ (-30) + simple "test" (-20) + test
			// word in both (-25).
			"testfootest", "user1", "testfootest", false, 25,
		},
		{
			// Short password (-20) + simple "123" (-20).
			"short and simple", "jane", "123", true, 60,
		},
		{
			// Generic username (-15) + test word (-25). Neither rule
			// flips is_real.
			"generic test user", "test", "S0mething&Long", true, 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAuthenticity(tt.username, tt.password)
			if got.IsReal != tt.isReal {
				t.Errorf("isReal = %v, want %v (issues: %v)", got.IsReal, tt.isReal, got.Issues)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("confidence = %d, want %d (issues: %v)", got.Confidence, tt.confidence, got.Issues)
			}
		})
	}
}

func TestCheckAuthenticity_ConfidenceFlooredAtZero(t *testing.T) {
	// Pattern (-30), identical (-25), simple (-20), test word (-25)
	// sum to exactly 100.
	got := CheckAuthenticity("testtest", "testtest")
	if got.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", got.Confidence)
	}
	if got.IsReal {
		t.Error("expected is_real=false")
	}
}

func TestCheckAuthenticity_AllRulesFire(t *testing.T) {
	got := CheckAuthenticity("demodemo", "demodemo")
	if len(got.Issues) < 3 {
		t.Errorf("expected multiple issues to accumulate, got %v", got.Issues)
	}
}

func TestCheckAuthenticity_Idempotent(t *testing.T) {
	first := CheckAuthenticity("admin", "admin")
	second := CheckAuthenticity("admin", "admin")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated check differs: %+v vs %+v", first, second)
	}
}
