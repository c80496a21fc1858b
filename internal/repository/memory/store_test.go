package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/service"
)

func seedEvent(t *testing.T, s *Store, id, slug string, at time.Time) {
	t.Helper()
	if err := s.CreateEvent(context.Background(), &model.Event{ID: id, Slug: slug, Title: "T " + slug, Date: at, CreatedAt: at}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
}

func seedGuest(t *testing.T, s *Store, id, eventID string, at time.Time) {
	t.Helper()
	g := &model.Guest{
		ID: id, EventID: eventID, FullName: "Guest " + id, Status: model.StatusPending,
		NumberOfGuests: 1, QRCodeToken: model.PlaceholderTokenPrefix + id, Slug: "slug-" + id,
		CreatedAt: at, UpdatedAt: at,
	}
	if err := s.CreateGuest(context.Background(), g); err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	seedEvent(t, s, "e1", "wedding", now)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx service.Repository) error {
		if err := tx.CreateTable(ctx, &model.Table{ID: "t1", EventID: "e1", Number: 1, Capacity: 4}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := s.GetTable(ctx, "t1"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("table survived rollback: %v", err)
	}
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	seedEvent(t, s, "e1", "wedding", now)

	if err := s.CreateEvent(ctx, &model.Event{ID: "e2", Slug: "wedding"}); !errors.Is(err, service.ErrDuplicate) {
		t.Fatalf("duplicate event slug: got %v", err)
	}
	if err := s.CreateTable(ctx, &model.Table{ID: "t1", EventID: "e1", Number: 1, Capacity: 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateTable(ctx, &model.Table{ID: "t2", EventID: "e1", Number: 1, Capacity: 4}); !errors.Is(err, service.ErrDuplicate) {
		t.Fatalf("duplicate table number: got %v", err)
	}
	seedGuest(t, s, "g1", "e1", now)
	dup := &model.Guest{ID: "g2", EventID: "e1", FullName: "x", NumberOfGuests: 1, QRCodeToken: "other", Slug: "slug-g1"}
	if err := s.CreateGuest(ctx, dup); !errors.Is(err, service.ErrDuplicate) {
		t.Fatalf("duplicate guest slug: got %v", err)
	}
}

func TestRecordRSVPAppliesOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	seedEvent(t, s, "e1", "wedding", now)
	seedGuest(t, s, "g1", "e1", now)

	ok, err := s.RecordRSVP(ctx, "g1", service.RSVPUpdate{Email: "a@b.c", NumberOfGuests: 2, Token: "q_1", At: now})
	if err != nil || !ok {
		t.Fatalf("first RecordRSVP = %v, %v", ok, err)
	}
	ok, err = s.RecordRSVP(ctx, "g1", service.RSVPUpdate{Email: "x@b.c", NumberOfGuests: 3, Token: "q_2", At: now})
	if err != nil || ok {
		t.Fatalf("second RecordRSVP = %v, %v", ok, err)
	}
	g, _ := s.GetGuest(ctx, "g1")
	if g.QRCodeToken != "q_1" || g.NumberOfGuests != 2 || g.Status != model.StatusAccepted {
		t.Fatalf("unexpected guest %+v", g)
	}
}

func TestDeleteTableRestrictedWhileReferenced(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	seedEvent(t, s, "e1", "wedding", now)
	seedGuest(t, s, "g1", "e1", now)
	if err := s.CreateTable(ctx, &model.Table{ID: "t1", EventID: "e1", Number: 1, Capacity: 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.SeatGuest(ctx, "g1", service.SeatingUpdate{TableID: "t1", Status: model.StatusPending, At: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTable(ctx, "t1"); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestFindEventMatchesIDSlugThenTitle(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	seedEvent(t, s, "e1", "wedding", now)

	for _, ref := range []string{"e1", "wedding", "T wedding"} {
		ev, err := s.FindEvent(ctx, ref)
		if err != nil || ev.ID != "e1" {
			t.Fatalf("FindEvent(%q) = %v, %v", ref, ev, err)
		}
	}
	if _, err := s.FindEvent(ctx, "nope"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestSearchCheckedInPagesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Now()
	seedEvent(t, s, "e1", "wedding", base)
	yes := true
	for i, id := range []string{"a", "b", "c"} {
		seedGuest(t, s, id, "e1", base)
		at := base.Add(time.Duration(i) * time.Minute)
		if err := s.Transaction(ctx, func(tx service.Repository) error {
			if i == 0 {
				if err := tx.CreateTable(ctx, &model.Table{ID: "t1", EventID: "e1", Number: 1, Capacity: 8}); err != nil {
					return err
				}
			}
			return tx.SeatGuest(ctx, id, service.SeatingUpdate{TableID: "t1", CheckedIn: &yes, Status: model.StatusAccepted, CheckInTime: &at, At: at})
		}); err != nil {
			t.Fatal(err)
		}
	}
	got, total, err := s.SearchCheckedIn(ctx, service.CheckedInFilter{EventID: "e1", Offset: 0, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected page total=%d %+v", total, got)
	}
	got, total, _ = s.SearchCheckedIn(ctx, service.CheckedInFilter{EventID: "e1", Offset: 2, Limit: 2})
	if total != 3 || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected second page total=%d %+v", total, got)
	}
}
