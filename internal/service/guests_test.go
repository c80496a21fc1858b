package service_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/service"
)

var guestSlugPattern = regexp.MustCompile(`^jane-doe-[0-9a-z]{4}`)

func TestCreateGuestSlugsAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	tokens := map[string]bool{}
	for i := 0; i < 50; i++ {
		g := f.newGuest(t, f.event.ID, "Jane Doe")
		if !guestSlugPattern.MatchString(g.Slug) {
			t.Fatalf("unexpected slug %q", g.Slug)
		}
		if seen[g.Slug] || tokens[g.QRCodeToken] {
			t.Fatalf("duplicate slug or token: %q %q", g.Slug, g.QRCodeToken)
		}
		seen[g.Slug] = true
		tokens[g.QRCodeToken] = true
		if !model.IsPlaceholderToken(g.QRCodeToken) || g.Status != model.StatusPending || g.NumberOfGuests != 1 {
			t.Fatalf("unexpected new guest %+v", g)
		}
	}
}

func TestCreateGuestResolvesEventRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ref := range []string{f.event.ID, f.event.Slug, f.event.Title, ""} {
		g, err := f.guests.CreateGuest(ctx, adminID, service.CreateGuestInput{FullName: "Ref " + ref, EventRef: ref})
		if err != nil {
			t.Fatalf("ref %q: %v", ref, err)
		}
		if g.EventID != f.event.ID {
			t.Fatalf("ref %q resolved to %q", ref, g.EventID)
		}
	}

	_, err := f.guests.CreateGuest(ctx, "no-events", service.CreateGuestInput{FullName: "Lost", EventRef: "unknown"})
	wantValidation(t, err, "eventId")

	_, err = f.guests.CreateGuest(ctx, adminID, service.CreateGuestInput{FullName: "   "})
	wantValidation(t, err, "fullName")

	foreign := f.newEvent(t, "admin-2", "Not Yours")
	if _, err := f.guests.CreateGuest(ctx, adminID, service.CreateGuestInput{FullName: "X", EventRef: foreign.ID}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestListGuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newGuest(t, f.event.ID, "First")
	f.newGuest(t, f.event.ID, "Second")

	list, err := f.guests.ListGuests(ctx, f.event.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].FullName != "Second" {
		t.Fatalf("unexpected list %+v", list)
	}
	list, err = f.guests.ListGuests(ctx, "no-such-event")
	if err != nil || len(list) != 0 {
		t.Fatalf("unknown event: %v, %v", list, err)
	}
}

func TestUpdatePartySizeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.newGuest(t, f.event.ID, "Jane Doe")

	_, err := f.guests.UpdatePartySize(ctx, adminID, g.ID, 0)
	wantValidation(t, err, "numberOfGuests")
	if _, err := f.guests.UpdatePartySize(ctx, "intruder", g.ID, 2); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	got, err := f.guests.UpdatePartySize(ctx, adminID, g.ID, 4)
	if err != nil || got.NumberOfGuests != 4 {
		t.Fatalf("UpdatePartySize = %+v, %v", got, err)
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	a, err := f.events.CreateEvent(ctx, adminID, service.CreateEventInput{Title: "Summer Gala!", Date: date})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.events.CreateEvent(ctx, adminID, service.CreateEventInput{Title: "Summer Gala!", Date: date})
	if err != nil {
		t.Fatal(err)
	}
	if a.Slug != "summer-gala" || !strings.HasPrefix(b.Slug, "summer-gala-") {
		t.Fatalf("unexpected slugs %q %q", a.Slug, b.Slug)
	}
	if _, err := f.events.CreateEvent(ctx, adminID, service.CreateEventInput{Slug: "Summer Gala", Title: "Copy", Date: date}); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("explicit duplicate slug: %v", err)
	}
	_, err = f.events.CreateEvent(ctx, adminID, service.CreateEventInput{Title: "No date"})
	wantValidation(t, err, "date")

	events, err := f.events.ListEvents(ctx, adminID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 || events[0].ID != b.ID {
		t.Fatalf("unexpected events %+v", events)
	}
}
