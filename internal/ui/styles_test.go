package ui

import (
	"strings"
	"testing"
)

func TestNormalizeAccentColor(t *testing.T) {
	accepted := []struct {
		input string
		want  string
	}{
		{"39", "39"},
		{" 244 ", "244"},
		{"0", "0"},
		{"#7aa2f7", "#7aa2f7"},
		{"#ABC", "#aabbcc"},
	}
	for _, tt := range accepted {
		got, ok := normalizeAccentColor(tt.input)
		if !ok {
			t.Errorf("normalizeAccentColor(%q) rejected, want %q", tt.input, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeAccentColor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	rejected := []string{"", "none", "off", "default", "256", "-1", "#zzzzzz", "#abcd", "green"}
	for _, input := range rejected {
		if got, ok := normalizeAccentColor(input); ok {
			t.Errorf("normalizeAccentColor(%q) accepted as %q, want rejection", input, got)
		}
	}
}

func TestConfigureTheme(t *testing.T) {
	origAccent, origBold, origColor := Accent, AccentBold, accentColor
	t.Cleanup(func() {
		Accent, AccentBold, accentColor = origAccent, origBold, origColor
	})

	ConfigureTheme("#ff0000")
	color, ok := AccentColor()
	if !ok || color != "#ff0000" {
		t.Fatalf("AccentColor() = %q, %v after configuring #ff0000", color, ok)
	}

	ConfigureTheme("off")
	if _, ok := AccentColor(); ok {
		t.Fatal("accent still reported after disabling theme")
	}
}

func TestTagBadgeFallsBackForBadColor(t *testing.T) {
	out := TagBadge("frontend", "not-a-color")
	if !strings.Contains(out, "[frontend]") {
		t.Fatalf("TagBadge with invalid color = %q, want bracketed fallback", out)
	}
}
