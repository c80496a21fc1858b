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

// CreateEventInput describes a new event.  Slug is derived from Title when
// left empty.
type CreateEventInput struct {
	Slug  string
	Title string
	Date  time.Time
	Venue *string
}

// EventService manages events owned by admins.
type EventService struct {
	repo Repository
	now  func() time.Time
}

// NewEventService wires event administration.
func NewEventService(repo Repository) *EventService {
	if repo == nil {
		panic("nil repository passed to NewEventService")
	}
	return &EventService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateEvent creates an event owned by adminID.  An explicit slug that is
// already taken is a conflict; a derived one gets a random suffix instead.
func (s *EventService) CreateEvent(ctx context.Context, adminID string, in CreateEventInput) (*model.Event, error) {
	if adminID == "" {
		return nil, ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Required("title")
	}
	if in.Date.IsZero() {
		return nil, Required("date")
	}
	now := s.now()
	slug := NormalizeSlug(in.Slug)
	if slug == "" {
		base := NormalizeSlug(title)
		if base == "" {
			base = "event"
		}
		var err error
		if slug, err = uniqueSlug(ctx, base, s.repo.EventSlugExists, now); err != nil {
			return nil, err
		}
	}
	ev := &model.Event{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     title,
		Date:      in.Date.UTC(),
		Venue:     trimmedOrNil(in.Venue),
		AdminID:   adminID,
		CreatedAt: now,
	}
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("event slug %q is taken: %w", slug, ErrConflict)
		}
		return nil, err
	}
	return ev, nil
}

// ListEvents returns the caller's events, newest first.
func (s *EventService) ListEvents(ctx context.Context, adminID string) ([]model.Event, error) {
	if adminID == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListEventsByAdmin(ctx, adminID)
}
