package util

import "testing"

func TestClampLimit(t *testing.T) {
	cases := map[string]int{
		"":     DefaultPageLimit,
		"abc":  DefaultPageLimit,
		"0":    DefaultPageLimit,
		"-3":   DefaultPageLimit,
		"20":   20,
		"9999": MaxPageLimit,
	}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseOffset(t *testing.T) {
	if got := ParseOffset("15"); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
	if got := ParseOffset("-1"); got != 0 {
		t.Errorf("expected negative offset to clamp to 0, got %d", got)
	}
}

func TestMustParseUint(t *testing.T) {
	if MustParseUint("42") != 42 {
		t.Error("expected 42")
	}
	if MustParseUint("x") != 0 {
		t.Error("expected 0 for invalid input")
	}
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"sleep":     "%sleep%",
		"100%":      `%100\%%`,
		"deep_rest": `%deep\_rest%`,
		`a\b`:       `%a\\b%`,
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Errorf("ContainsPattern(%q): expected %q, got %q", in, want, got)
		}
	}
}
