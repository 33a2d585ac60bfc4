package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Lakeside Lodge  ", "Lakeside Lodge"},
		{"collapse inner whitespace", "Lakeside    Lodge", "Lakeside Lodge"},
		{"tabs and newlines", "Lakeside\t\nLodge", "Lakeside Lodge"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"preserve special characters", " Café & Spa™ ", "Café & Spa™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Jane@Example.COM  ", "jane@example.com"},
		{"jane@example.com", "jane@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeEmail(tt.input); got != tt.want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeLabel(t *testing.T) {
	if got := SanitizeLabel("  Nairobi   West "); got != "nairobi west" {
		t.Errorf("SanitizeLabel() = %q, want %q", got, "nairobi west")
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{" WiFi ", "wifi", "", "Parking", "  "}, SanitizeLabel)
	want := []string{"wifi", "parking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice() = %v, want %v", got, want)
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"kenyan local format", "0712 345 678", "+254712345678"},
		{"already E.164", "+254712345678", "+254712345678"},
		{"empty stays empty", "", ""},
		{"unparseable returned as given", "not-a-number", "not-a-number"},
		{"too short returned as given", "12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePhone(tt.input); got != tt.want {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
