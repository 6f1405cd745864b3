package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): Primary text
// - Accent (soft green #34D399): Highlights, ticket IDs, interactive elements
// - Muted (gray): Secondary info
// - No colored success/error/warning - use unicode symbols only

const defaultAccentColor = "#34D399"

var (
	// Accent style for ticket IDs, project codes, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccentColor))

	// Muted style for secondary info, hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccentColor)).Bold(true)

	accentColor = defaultAccentColor
)

// ConfigureTheme applies the configured accent color to the shared styles.
// "none", "off", "default" or an unparseable value disable the accent.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		if strings.TrimSpace(accent) == "" {
			return
		}
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// AccentColor returns the active accent color, if one is configured.
func AccentColor() (string, bool) {
	if accentColor == "" {
		return "", false
	}
	return accentColor, true
}

// normalizeAccentColor validates an accent color value: ANSI codes 0-255
// or hex colors (#RGB is expanded to #RRGGBB).
func normalizeAccentColor(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "none", "off", "default":
		return "", false
	}

	if strings.HasPrefix(trimmed, "#") {
		hex := strings.ToLower(trimmed[1:])
		for _, c := range hex {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				return "", false
			}
		}
		switch len(hex) {
		case 3:
			return fmt.Sprintf("#%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]), true
		case 6:
			return "#" + hex, true
		}
		return "", false
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 || n > 255 {
		return "", false
	}
	return strconv.Itoa(n), true
}

// TagBadge renders a tag label with its configured background color.
func TagBadge(text, color string) string {
	normalized, ok := normalizeAccentColor(color)
	if !ok {
		return Muted.Render("[" + text + "]")
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(normalized)).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1).
		Render(text)
}
