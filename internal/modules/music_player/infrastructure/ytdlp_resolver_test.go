package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sglre6355/groovebot/internal/modules/music_player/application/ports"
)

func TestYtdlpResolver_CanceledContext(t *testing.T) {
	resolver := NewYtdlpResolver(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, "some song")
	if err == nil {
		t.Fatal("expected an error for a canceled context")
	}

	var resErr *ports.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected a ResolutionError, got %T: %v", err, err)
	}
	if resErr.Query != "some song" {
		t.Errorf("expected the query to be preserved, got %q", resErr.Query)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in the chain, got %v", err)
	}
}

func TestIsURL(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=abc", true},
		{"http://example.com/track", true},
		{"never gonna give you up", false},
		{"httpsish query", false},
	}
	for _, c := range cases {
		if got := isURL(c.query); got != c.want {
			t.Errorf("isURL(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}
