package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestToFields(t *testing.T) {
	err := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		want  int
	}{
		{"empty input", nil, 0},
		{"string pairs", []any{"a", "x", "b", 123, "c", true}, 3},
		{"time value", []any{"t", time.Now()}, 1},
		{"duration value", []any{"d", 5 * time.Second}, 1},
		{"bytes", []any{"data", []byte("xyz")}, 1},
		{"bare error", []any{err}, 1},
		{"two bare errors", []any{err, errors.New("again")}, 2},
		{"passthrough field", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, 3},
		{"odd trailing value", []any{"key1", "val1", "key2"}, 2},
		{"non-string key", []any{123, "value"}, 1},
		{"nil value", []any{"a", nil}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			if len(fields) != tt.want {
				t.Errorf("toFields(%v) yielded %d fields, want %d", tt.input, len(fields), tt.want)
			}
			for _, f := range fields {
				if f.Key == "" {
					t.Errorf("field has empty key: %+v", f)
				}
			}
		})
	}
}
