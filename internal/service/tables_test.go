package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/service"
)

func TestAssignFillsTableToCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 3, 8)

	seated := f.newGuest(t, f.event.ID, "Party Of Seven")
	f.setParty(t, seated.ID, 7)
	f.seat(t, seated.ID, table.ID)

	single := f.newGuest(t, f.event.ID, "Single One")
	res := f.seat(t, single.ID, table.ID)
	if res.Table.SeatsUsed != 8 || res.Table.Number != 3 || res.Table.Capacity != 8 {
		t.Fatalf("unexpected occupancy %+v", res.Table)
	}

	late := f.newGuest(t, f.event.ID, "Late Arrival")
	_, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: late.ID, TableID: table.ID})
	var ce *service.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("want CapacityError, got %v", err)
	}
	if ce.Error() != "Table 3 does not have enough seats" {
		t.Fatalf("unexpected message %q", ce.Error())
	}
	stored, _ := f.repo.GetGuest(ctx, late.ID)
	if stored.TableID != nil {
		t.Fatal("rejected assignment left a table reference behind")
	}
}

func TestReassignSameTableDoesNotDoubleCount(t *testing.T) {
	f := newFixture(t)
	table := f.newTable(t, f.event.ID, 1, 4)
	g := f.newGuest(t, f.event.ID, "Full House")
	f.setParty(t, g.ID, 4)

	first := f.seat(t, g.ID, table.ID)
	again := f.seat(t, g.ID, table.ID)
	if first.Table.SeatsUsed != 4 || again.Table.SeatsUsed != 4 {
		t.Fatalf("occupancy changed on re-assign: %d -> %d", first.Table.SeatsUsed, again.Table.SeatsUsed)
	}
}

func TestAssignCheckInFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 1, 8)
	g := f.newGuest(t, f.event.ID, "Jane Doe")

	res, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: g.ID, TableID: table.ID, CheckedIn: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Guest.CheckedIn || res.Guest.Status != model.StatusAccepted || res.Guest.CheckInTime == nil {
		t.Fatalf("check-in not applied: %+v", res.Guest)
	}
	stamp := *res.Guest.CheckInTime

	// omitted flag leaves the check-in untouched
	res = f.seat(t, g.ID, table.ID)
	if !res.Guest.CheckedIn || res.Guest.CheckInTime == nil || !res.Guest.CheckInTime.Equal(stamp) {
		t.Fatalf("check-in changed without flag: %+v", res.Guest)
	}

	res, err = f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: g.ID, TableID: table.ID, CheckedIn: boolPtr(false)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Guest.CheckedIn || res.Guest.CheckInTime != nil {
		t.Fatalf("check-in not cleared: %+v", res.Guest)
	}
}

func TestAssignPromotesDeclinedGuestOnCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 1, 8)
	g := f.newGuest(t, f.event.ID, "Changed Mind")
	rsvp := service.NewRSVPService(f.repo, nil, nopLogger())
	if _, err := rsvp.Decline(ctx, g.Slug); err != nil {
		t.Fatal(err)
	}
	res, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: g.ID, TableID: table.ID, CheckedIn: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Guest.Status != model.StatusAccepted {
		t.Fatalf("want ACCEPTED, got %s", res.Guest.Status)
	}
}

func TestAssignErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 1, 8)
	g := f.newGuest(t, f.event.ID, "Jane Doe")

	if _, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: "missing", TableID: table.ID}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("missing guest: %v", err)
	}
	if _, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: g.ID, TableID: "missing"}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("missing table: %v", err)
	}
	if _, err := f.tables.Assign(ctx, "intruder", service.AssignInput{GuestID: g.ID, TableID: table.ID}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("foreign admin: %v", err)
	}
	if _, err := f.tables.Assign(ctx, "", service.AssignInput{GuestID: g.ID, TableID: table.ID}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
	_, err := f.tables.Assign(ctx, adminID, service.AssignInput{TableID: table.ID})
	wantValidation(t, err, "guestId")

	other := f.newEvent(t, adminID, "Second Event")
	otherTable := f.newTable(t, other.ID, 1, 8)
	_, err = f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: g.ID, TableID: otherTable.ID})
	wantValidation(t, err, "tableId")
}

// N parallel single-seat assignments against a table with N-1 free seats:
// exactly one must be refused.
func TestConcurrentAssignNeverOverfillsTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 16
	table := f.newTable(t, f.event.ID, 1, n-1)

	guests := make([]*model.Guest, n)
	for i := range guests {
		guests[i] = f.newGuest(t, f.event.ID, fmt.Sprintf("Guest %d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		capacity int
		other    []error
	)
	for _, g := range guests {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.tables.Assign(ctx, adminID, service.AssignInput{GuestID: id, TableID: table.ID})
			mu.Lock()
			defer mu.Unlock()
			var ce *service.CapacityError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ce):
				capacity++
			default:
				other = append(other, err)
			}
		}(g.ID)
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if ok != n-1 || capacity != 1 {
		t.Fatalf("want %d successes and 1 refusal, got %d and %d", n-1, ok, capacity)
	}
	used, err := f.repo.SeatsUsed(ctx, table.ID)
	if err != nil {
		t.Fatal(err)
	}
	if used != n-1 {
		t.Fatalf("seats used %d, capacity %d", used, n-1)
	}
}

func TestCreateTableNumbersAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tables.CreateTable(ctx, adminID, service.CreateTableInput{EventID: f.event.ID})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.tables.CreateTable(ctx, adminID, service.CreateTableInput{EventID: f.event.ID})
	if err != nil {
		t.Fatal(err)
	}
	if first.Number != 1 || second.Number != 2 || first.Capacity != service.DefaultTableCapacity {
		t.Fatalf("unexpected tables %+v %+v", first, second)
	}
	if _, err := f.tables.CreateTable(ctx, adminID, service.CreateTableInput{EventID: f.event.ID, Number: intPtr(2)}); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("duplicate number: %v", err)
	}
	_, err = f.tables.CreateTable(ctx, adminID, service.CreateTableInput{EventID: f.event.ID, Capacity: intPtr(0)})
	wantValidation(t, err, "capacity")
	if _, err := f.tables.CreateTable(ctx, "intruder", service.CreateTableInput{EventID: f.event.ID}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("foreign admin: %v", err)
	}

	list, err := f.tables.ListTables(ctx, f.event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Number != 1 || list[1].Number != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestDeleteTableRefusedWhileSeated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 1, 8)
	empty := f.newTable(t, f.event.ID, 2, 8)
	g := f.newGuest(t, f.event.ID, "Jane Doe")
	f.seat(t, g.ID, table.ID)

	if err := f.tables.DeleteTable(ctx, adminID, table.ID); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := f.tables.DeleteTable(ctx, adminID, empty.ID); err != nil {
		t.Fatalf("delete empty table: %v", err)
	}
	if _, err := f.repo.GetTable(ctx, empty.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("table still present: %v", err)
	}
}

func TestPartySizeIncreaseRespectsCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.newTable(t, f.event.ID, 5, 4)
	a := f.newGuest(t, f.event.ID, "Guest A")
	b := f.newGuest(t, f.event.ID, "Guest B")
	f.setParty(t, a.ID, 2)
	f.seat(t, a.ID, table.ID)
	f.seat(t, b.ID, table.ID)

	if _, err := f.guests.UpdatePartySize(ctx, adminID, a.ID, 3); err != nil {
		t.Fatalf("fits exactly: %v", err)
	}
	_, err := f.guests.UpdatePartySize(ctx, adminID, a.ID, 4)
	var ce *service.CapacityError
	if !errors.As(err, &ce) || ce.TableNumber != 5 {
		t.Fatalf("want CapacityError for table 5, got %v", err)
	}
	stored, _ := f.repo.GetGuest(ctx, a.ID)
	if stored.NumberOfGuests != 3 {
		t.Fatalf("rejected update changed party size to %d", stored.NumberOfGuests)
	}
}
