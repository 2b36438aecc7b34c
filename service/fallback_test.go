package service

import (
	"context"
	"errors"
	"testing"
)

func TestTryWithFallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		primary func(ctx context.Context) (string, error)
		want    string
	}{
		{
			"primary succeeds",
			func(ctx context.Context) (string, error) { return "  ai result  ", nil },
			"ai result",
		},
		{
			"primary errors",
			func(ctx context.Context) (string, error) { return "", errors.New("capability down") },
			"fallback",
		},
		{
			"primary returns blank",
			func(ctx context.Context) (string, error) { return "   ", nil },
			"fallback",
		},
		{
			"no primary at all",
			nil,
			"fallback",
		},
	}
	for _, tt := range tests {
		got := TryWithFallback(ctx, "test", tt.primary, func() string { return "fallback" })
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
