package service

import (
	"context"
	"strings"

	"github.com/digivite/digivite/internal/model"
)

// Verifier resolves scanned codes to guests.  It never writes: checking a
// guest in is a separate admin action on the table allocator, so scans can
// be repeated freely.
type Verifier struct {
	repo GuestStore
}

// NewVerifier wires the check-in verifier.
func NewVerifier(repo GuestStore) *Verifier {
	if repo == nil {
		panic("nil repository passed to NewVerifier")
	}
	return &Verifier{repo: repo}
}

// Verify accepts either the QR payload or a manually typed slug.
func (v *Verifier) Verify(ctx context.Context, token string) (model.GuestProjection, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.GuestProjection{}, Invalid("token", "Missing token")
	}
	g, err := v.repo.FindGuestByTokenOrSlug(ctx, token)
	if err != nil {
		return model.GuestProjection{}, err
	}
	return g.Projection(), nil
}
