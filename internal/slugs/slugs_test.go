package slugs

import "testing"

func TestNameSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fancy Project", "fancy-project"},
		{"UPPER CASE", "upper-case"},
		{"Special: Characters!", "special-characters"},
		{"already-slugged", "already-slugged"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NameSlug(tt.in); got != tt.want {
				t.Fatalf("NameSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShortCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Iguana", "IGUA"},
		{"Fancy Project", "FP"},
		{"One Two Three Four Five", "OTTF"},
		{"abc", "ABC"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ShortCode(tt.in); got != tt.want {
				t.Fatalf("ShortCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidCode(t *testing.T) {
	valid := []string{"P", "PRJ", "ABCD", "prj"}
	for _, s := range valid {
		if !ValidCode(s) {
			t.Errorf("ValidCode(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "ABCDE", "P1", "A-B"}
	for _, s := range invalid {
		if ValidCode(s) {
			t.Errorf("ValidCode(%q) = true, want false", s)
		}
	}
}
