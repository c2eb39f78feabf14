package cache

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Aries", "aries"},
		{"  Sagittarius ", "sagittarius"},
		{"New  York", "new-york"},
		{"snake_case_name", "snake-case-name"},
		{"--dash--", "dash"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	day := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	got := Key("Horoscope", "Sign", map[string]string{"sign": " ARIES ", "lang": "en"}, day)
	want := "horoscope:sign:lang=en&sign=aries:2026-10-19"
	if got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}

	// same logical request, different spelling
	if again := Key("horoscope", "sign", map[string]string{"lang": "EN", "sign": "aries"}, day); again != want {
		t.Fatalf("expected equivalent requests to collide, got %q", again)
	}

	next := Key("horoscope", "sign", map[string]string{"sign": "aries", "lang": "en"}, day.AddDate(0, 0, 1))
	if next == want {
		t.Fatalf("expected different calendar days to produce different keys")
	}
}

func TestKey_NoParams(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := Key("rates", "latest", nil, day); got != "rates:latest::2026-01-02" {
		t.Fatalf("Key() = %q", got)
	}
}
