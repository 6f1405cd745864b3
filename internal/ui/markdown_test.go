package ui

import (
	"strings"
	"testing"
)

func TestRenderMarkdownTrailingNewline(t *testing.T) {
	t.Parallel()

	out, err := RenderMarkdown("# Steps to reproduce\n\n1. log in\n2. crash", 80)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
		t.Fatalf("want exactly one trailing newline, got %q", out)
	}
}

func TestRenderMarkdownZeroWidth(t *testing.T) {
	t.Parallel()

	out, err := RenderMarkdown("fallback width", 0)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("rendered output is empty")
	}
}

func TestMarkdownStyleDefaults(t *testing.T) {
	style := markdownStyle()

	for name, underline := range map[string]*bool{"H1": style.H1.Underline, "H2": style.H2.Underline} {
		if underline == nil || !*underline {
			t.Errorf("%s heading not underlined", name)
		}
	}
	if style.Code.Color == nil {
		t.Error("inline code has no color")
	}
	if style.CodeBlock.Theme == "" {
		t.Error("code blocks have no syntax theme")
	}
}

func TestConfigureMarkdownCodeTheme(t *testing.T) {
	orig := markdownCodeTheme
	t.Cleanup(func() { markdownCodeTheme = orig })

	tests := []struct {
		input string
		want  string
	}{
		{"dracula", "dracula"},
		{"DrAcUlA", "dracula"},
		{"not-a-real-theme", defaultCodeTheme},
	}
	for _, tt := range tests {
		ConfigureMarkdownCodeTheme(tt.input)
		if markdownCodeTheme != tt.want {
			t.Errorf("ConfigureMarkdownCodeTheme(%q): theme = %q, want %q", tt.input, markdownCodeTheme, tt.want)
		}
	}

	ConfigureMarkdownCodeTheme("dracula")
	if got := markdownStyle().CodeBlock.Theme; got != "dracula" {
		t.Fatalf("style theme = %q after configuring dracula", got)
	}
}
