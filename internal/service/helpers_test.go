package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/repository/memory"
	"github.com/digivite/digivite/internal/service"
)

const adminID = "admin-1"

type capturingNotifier struct {
	mu      sync.Mutex
	notices []service.InvitationNotice
}

func (n *capturingNotifier) InvitationIssued(_ context.Context, in service.InvitationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, in)
	return nil
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type failingNotifier struct{}

func (failingNotifier) InvitationIssued(context.Context, service.InvitationNotice) error {
	return errors.New("smtp: connection refused")
}

type fixture struct {
	repo   *memory.Store
	events *service.EventService
	guests *service.GuestService
	tables *service.TableService
	event  *model.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.New()
	f := &fixture{
		repo:   repo,
		events: service.NewEventService(repo),
		guests: service.NewGuestService(repo),
		tables: service.NewTableService(repo),
	}
	f.event = f.newEvent(t, adminID, "Jane & John")
	return f
}

func (f *fixture) newEvent(t *testing.T, owner, title string) *model.Event {
	t.Helper()
	ev, err := f.events.CreateEvent(context.Background(), owner, service.CreateEventInput{
		Title: title,
		Date:  time.Date(2026, 6, 20, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return ev
}

func (f *fixture) newGuest(t *testing.T, eventID, name string) *model.Guest {
	t.Helper()
	g, err := f.guests.CreateGuest(context.Background(), adminID, service.CreateGuestInput{FullName: name, EventRef: eventID})
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	return g
}

func (f *fixture) newTable(t *testing.T, eventID string, number, capacity int) *model.Table {
	t.Helper()
	tbl, err := f.tables.CreateTable(context.Background(), adminID, service.CreateTableInput{
		EventID: eventID, Number: &number, Capacity: &capacity,
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return tbl
}

func (f *fixture) setParty(t *testing.T, guestID string, n int) {
	t.Helper()
	if _, err := f.guests.UpdatePartySize(context.Background(), adminID, guestID, n); err != nil {
		t.Fatalf("UpdatePartySize: %v", err)
	}
}

func (f *fixture) seat(t *testing.T, guestID, tableID string) service.AssignResult {
	t.Helper()
	res, err := f.tables.Assign(context.Background(), adminID, service.AssignInput{GuestID: guestID, TableID: tableID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	return res
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func wantValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError on %q, got %v", field, err)
	}
	if ve.Field != field {
		t.Fatalf("want field %q, got %q (%v)", field, ve.Field, ve)
	}
}
