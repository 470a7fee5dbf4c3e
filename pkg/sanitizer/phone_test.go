package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already e164 india", "+919876543210", "+919876543210"},
		{"national india", "9876543210", "+919876543210"},
		{"us with formatting", "(202) 555-0175", "+12025550175"},
		{"garbage", "not-a-phone", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePhone(tc.input); got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	once := NormalizePhone("9876543210")
	twice := NormalizePhone(once)
	if once != twice {
		t.Errorf("not idempotent: %q != %q", once, twice)
	}
}
