package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"spaces only", "   ", ""},
		{"simple", "Rohan Gupta", "Rohan Gupta"},
		{"collapses inner runs", "Rohan   \t Gupta", "Rohan Gupta"},
		{"trims ends", "  Rohan Gupta  ", "Rohan Gupta"},
		{"newlines collapse", "Rohan\nGupta", "Rohan Gupta"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrimAndNormalize(tc.input); got != tc.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTrimAndNormalizeIdempotent(t *testing.T) {
	inputs := []string{"  a  b  ", "x", "", "  multi   word  input "}
	for _, in := range inputs {
		once := TrimAndNormalize(in)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeFreeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"drops control chars", "chest\x00 pain\x07", "chest pain"},
		{"keeps punctuation", "BP 140/90, pulse 110.", "BP 140/90, pulse 110."},
		{"collapses whitespace", "severe   bleeding", "severe bleeding"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFreeText(tc.input); got != tc.want {
				t.Errorf("SanitizeFreeText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitizeDepartment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Cardiology", "cardiology"},
		{"  General   Medicine ", "general_medicine"},
		{"ENT!", "ent"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := SanitizeDepartment(tc.input); got != tc.want {
			t.Errorf("SanitizeDepartment(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
