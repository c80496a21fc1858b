package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digivite/digivite/internal/model"
)

const (
	// MaxGuestList caps the admin guest list.
	MaxGuestList = 200
	// createGuestAttempts bounds retries when a unique index rejects a
	// freshly generated slug or placeholder token.
	createGuestAttempts = 3
)

// CreateGuestInput adds a guest.  EventRef may be an event id, slug or
// title; when empty the admin's most recent event is used.
type CreateGuestInput struct {
	FullName string
	EventRef string
}

// GuestService covers admin-side guest management.
type GuestService struct {
	repo Repository
	now  func() time.Time
}

// NewGuestService wires guest administration.
func NewGuestService(repo Repository) *GuestService {
	if repo == nil {
		panic("nil repository passed to NewGuestService")
	}
	return &GuestService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateGuest registers a guest with a unique slug and a placeholder token.
func (s *GuestService) CreateGuest(ctx context.Context, adminID string, in CreateGuestInput) (*model.Guest, error) {
	if adminID == "" {
		return nil, ErrUnauthorized
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, Invalid("fullName", "Full name is required")
	}
	ev, err := s.resolveEventRef(ctx, adminID, strings.TrimSpace(in.EventRef))
	if err != nil {
		return nil, err
	}
	if !ev.OwnedBy(adminID) {
		return nil, ErrForbidden
	}

	base := NormalizeSlug(name)
	if base == "" {
		base = "guest"
	}
	for attempt := 0; ; attempt++ {
		g, err := s.newGuest(ctx, ev.ID, name, base)
		if err != nil {
			return nil, err
		}
		err = s.repo.CreateGuest(ctx, g)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrDuplicate) || attempt+1 >= createGuestAttempts {
			return nil, fmt.Errorf("create guest: %w", err)
		}
	}
}

func (s *GuestService) newGuest(ctx context.Context, eventID, name, base string) (*model.Guest, error) {
	suffix, err := randomString(base36Alphabet, slugSuffixLen)
	if err != nil {
		return nil, err
	}
	now := s.now()
	slug, err := uniqueSlug(ctx, base+"-"+suffix, s.repo.GuestSlugExists, now)
	if err != nil {
		return nil, err
	}
	placeholder, err := NewPlaceholderToken()
	if err != nil {
		return nil, err
	}
	return &model.Guest{
		ID:             uuid.NewString(),
		EventID:        eventID,
		FullName:       name,
		Status:         model.StatusPending,
		NumberOfGuests: 1,
		QRCodeToken:    placeholder,
		Slug:           slug,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *GuestService) resolveEventRef(ctx context.Context, adminID, ref string) (*model.Event, error) {
	if ref != "" {
		ev, err := s.repo.FindEvent(ctx, ref)
		if err == nil {
			return ev, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	ev, err := s.repo.LatestEventByAdmin(ctx, adminID)
	if isNotFound(err) {
		return nil, Invalid("eventId", "No event found; provide a valid eventId or event slug/title")
	}
	return ev, err
}

// ListGuests returns up to 200 guests, newest first.  An empty eventRef
// lists across events; an unknown one yields an empty list.
func (s *GuestService) ListGuests(ctx context.Context, eventRef string) ([]model.GuestListItem, error) {
	eventID := ""
	if ref := strings.TrimSpace(eventRef); ref != "" {
		ev, err := s.repo.FindEvent(ctx, ref)
		if isNotFound(err) {
			return []model.GuestListItem{}, nil
		}
		if err != nil {
			return nil, err
		}
		eventID = ev.ID
	}
	return s.repo.ListGuests(ctx, eventID, MaxGuestList)
}

// UpdatePartySize changes numberOfGuests.  A seated guest keeps the table
// within capacity; the check runs under the table lock.
func (s *GuestService) UpdatePartySize(ctx context.Context, adminID, guestID string, n int) (*model.Guest, error) {
	if adminID == "" {
		return nil, ErrUnauthorized
	}
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return nil, Required("guestId")
	}
	if n < 1 {
		return nil, Invalid("numberOfGuests", "numberOfGuests must be at least 1")
	}
	var out *model.Guest
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		g, err := tx.LockGuest(ctx, guestID)
		if err != nil {
			return err
		}
		if _, err := authorizeEvent(ctx, tx, g.EventID, adminID); err != nil {
			return err
		}
		if g.TableID != nil {
			table, err := tx.LockTable(ctx, *g.TableID)
			if err != nil {
				return err
			}
			if err := checkCapacity(ctx, tx, table, g, n); err != nil {
				return err
			}
		}
		if err := tx.SetPartySize(ctx, g.ID, n, s.now()); err != nil {
			return err
		}
		out, err = tx.GetGuest(ctx, g.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
