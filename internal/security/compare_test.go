package security

import "testing"

// TestConstantTimeCompare_Equal tests that identical strings compare equal
func TestConstantTimeCompare_Equal(t *testing.T) {
	values := []string{
		"",
		"a",
		"admin",
		"securepassword123",
		"p@ssw0rd with spaces and symbols !#$%",
	}

	for _, v := range values {
		if !ConstantTimeCompare(v, v) {
			t.Errorf("ConstantTimeCompare(%q, %q) = false, want true", v, v)
		}
	}
}

// TestConstantTimeCompare_Unequal tests mismatches of both length and content
func TestConstantTimeCompare_Unequal(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"different length", "admin", "administrator"},
		{"empty vs non-empty", "", "admin"},
		{"non-empty vs empty", "admin", ""},
		{"same length first char differs", "xdmin", "admin"},
		{"same length last char differs", "admix", "admin"},
		{"same length middle differs", "adXin", "admin"},
		{"case differs", "Admin", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ConstantTimeCompare(tt.a, tt.b) {
				t.Errorf("ConstantTimeCompare(%q, %q) = true, want false", tt.a, tt.b)
			}
		})
	}
}
