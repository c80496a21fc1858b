package handler

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/repository/memory"
	"github.com/digivite/digivite/internal/service"
)

func TestNewGuestHandler(t *testing.T) {
	repo := memory.New()
	rsvp := service.NewRSVPService(repo, nil, zerolog.Nop())
	h := NewGuestHandler(rsvp, service.NewVerifier(repo))
	if h.Guests != rsvp || h.Verifier == nil {
		t.Fatalf("services not wired: %+v", h)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a nil service")
		}
	}()
	NewGuestHandler(nil, service.NewVerifier(repo))
}
