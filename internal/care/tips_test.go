package care

import (
	"strings"
	"testing"
)

func TestTipMatchesKeywordInName(t *testing.T) {
	advice := Tip("My big Ficus")
	if advice == genericTip {
		t.Fatal("expected ficus-specific advice")
	}
	if !strings.Contains(advice, "Watering") {
		t.Fatalf("advice missing watering section: %q", advice)
	}
}

func TestTipFallsBackToGenericAdvice(t *testing.T) {
	if Tip("Unknownium") != genericTip {
		t.Fatal("expected the generic fallback")
	}
}
