package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string cut", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"tiny max has no room for ellipsis", "hello", 2, "he"},
		{"cyrillic runes not bytes", "приветище", 6, "при..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateNeverExceedsMax(t *testing.T) {
	long := strings.Repeat("ы", 500)
	for _, max := range []int{1, 3, 4, 200} {
		got := Truncate(long, max)
		if n := len([]rune(got)); n > max {
			t.Errorf("Truncate(., %d) produced %d runes", max, n)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("query too short: %d", 1)
	if !IsValidation(err) {
		t.Error("IsValidation(ValidationError) = false")
	}
	if !IsValidation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsValidation should see through wrapping")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("IsValidation(plain error) = true")
	}
	if err.Error() != "query too short: 1" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
