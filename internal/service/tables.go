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

// DefaultTableCapacity is used when a table is created without a capacity.
const DefaultTableCapacity = 8

// AssignInput seats a guest.  CheckedIn is optional; when nil the guest's
// check-in flag is left as it is.
type AssignInput struct {
	GuestID   string
	TableID   string
	CheckedIn *bool
}

// AssignResult carries the guest after the write and the table occupancy
// recomputed after the write.
type AssignResult struct {
	Guest *model.Guest         `json:"guest"`
	Table model.TableOccupancy `json:"table"`
}

// CreateTableInput creates a table.  A nil Number takes the next free
// number in the event.
type CreateTableInput struct {
	EventID  string
	Number   *int
	Capacity *int
}

// TableService allocates seats and manages tables.
type TableService struct {
	repo Repository
	now  func() time.Time
}

// NewTableService wires the table allocator.
func NewTableService(repo Repository) *TableService {
	if repo == nil {
		panic("nil repository passed to NewTableService")
	}
	return &TableService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Assign seats a guest at a table.  The occupancy check and the write run
// in one transaction holding the table's row lock, so concurrent
// assignments against the same table are serialised and can never jointly
// overshoot its capacity.
func (s *TableService) Assign(ctx context.Context, adminID string, in AssignInput) (AssignResult, error) {
	if adminID == "" {
		return AssignResult{}, ErrUnauthorized
	}
	in.GuestID = strings.TrimSpace(in.GuestID)
	in.TableID = strings.TrimSpace(in.TableID)
	if in.GuestID == "" {
		return AssignResult{}, Required("guestId")
	}
	if in.TableID == "" {
		return AssignResult{}, Required("tableId")
	}

	var out AssignResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		guest, err := tx.LockGuest(ctx, in.GuestID)
		if err != nil {
			return err
		}
		table, err := tx.LockTable(ctx, in.TableID)
		if err != nil {
			return err
		}
		if _, err := authorizeEvent(ctx, tx, table.EventID, adminID); err != nil {
			return err
		}
		if guest.EventID != table.EventID {
			if _, err := authorizeEvent(ctx, tx, guest.EventID, adminID); err != nil {
				return err
			}
			return Invalid("tableId", "table belongs to a different event than the guest")
		}

		if err := checkCapacity(ctx, tx, table, guest, guest.NumberOfGuests); err != nil {
			return err
		}

		now := s.now()
		upd := SeatingUpdate{TableID: table.ID, Status: guest.Status, CheckInTime: guest.CheckInTime, At: now}
		if in.CheckedIn != nil {
			upd.CheckedIn = in.CheckedIn
			if *in.CheckedIn {
				upd.Status = model.StatusAccepted
				if !guest.CheckedIn || guest.CheckInTime == nil {
					upd.CheckInTime = &now
				}
			} else {
				upd.CheckInTime = nil
			}
		}
		if err := tx.SeatGuest(ctx, guest.ID, upd); err != nil {
			return fmt.Errorf("seat guest: %w", err)
		}

		used, err := tx.SeatsUsed(ctx, table.ID)
		if err != nil {
			return err
		}
		updated, err := tx.GetGuest(ctx, guest.ID)
		if err != nil {
			return err
		}
		out = AssignResult{Guest: updated, Table: table.WithSeats(used)}
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}
	return out, nil
}

// checkCapacity verifies that seating party seats for guest at table keeps
// the table within capacity.  A guest already at the table is not counted
// twice.
func checkCapacity(ctx context.Context, tx Repository, table *model.Table, guest *model.Guest, party int) error {
	used, err := tx.SeatsUsed(ctx, table.ID)
	if err != nil {
		return err
	}
	if guest.AtTable(table.ID) {
		used -= guest.NumberOfGuests
		if used < 0 {
			used = 0
		}
	}
	if used+party > table.Capacity {
		return &CapacityError{TableNumber: table.Number, Capacity: table.Capacity, Requested: party}
	}
	return nil
}

// ListTables returns the event's tables ordered by number with their
// current occupancy.
func (s *TableService) ListTables(ctx context.Context, eventID string) ([]model.TableOccupancy, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, Required("eventId")
	}
	tables, err := s.repo.ListTables(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]model.TableOccupancy, 0, len(tables))
	for _, t := range tables {
		used, err := s.repo.SeatsUsed(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, t.WithSeats(used))
	}
	return out, nil
}

// CreateTable adds a table to an event the caller owns.
func (s *TableService) CreateTable(ctx context.Context, adminID string, in CreateTableInput) (*model.Table, error) {
	if adminID == "" {
		return nil, ErrUnauthorized
	}
	in.EventID = strings.TrimSpace(in.EventID)
	if in.EventID == "" {
		return nil, Required("eventId")
	}
	capacity := DefaultTableCapacity
	if in.Capacity != nil {
		capacity = *in.Capacity
	}
	if capacity < 1 {
		return nil, Invalid("capacity", "capacity must be greater than zero")
	}
	if in.Number != nil && *in.Number < 1 {
		return nil, Invalid("number", "number must be greater than zero")
	}

	var table *model.Table
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := authorizeEvent(ctx, tx, in.EventID, adminID); err != nil {
			return err
		}
		number := 0
		if in.Number != nil {
			number = *in.Number
		} else {
			max, err := tx.MaxTableNumber(ctx, in.EventID)
			if err != nil {
				return err
			}
			number = max + 1
		}
		table = &model.Table{
			ID:        uuid.NewString(),
			EventID:   in.EventID,
			Number:    number,
			Capacity:  capacity,
			CreatedAt: s.now(),
		}
		if err := tx.CreateTable(ctx, table); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return fmt.Errorf("table %d already exists: %w", number, ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DeleteTable removes an empty table.  Tables that still seat guests are
// refused with ErrConflict; guests are never unseated implicitly.
func (s *TableService) DeleteTable(ctx context.Context, adminID, tableID string) error {
	if adminID == "" {
		return ErrUnauthorized
	}
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return Required("tableId")
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		table, err := tx.LockTable(ctx, tableID)
		if err != nil {
			return err
		}
		if _, err := authorizeEvent(ctx, tx, table.EventID, adminID); err != nil {
			return err
		}
		used, err := tx.SeatsUsed(ctx, table.ID)
		if err != nil {
			return err
		}
		if used > 0 {
			return fmt.Errorf("table %d still has guests assigned: %w", table.Number, ErrConflict)
		}
		return tx.DeleteTable(ctx, table.ID)
	})
}

// authorizeEvent loads an event and checks that adminID may act on it.
func authorizeEvent(ctx context.Context, repo EventStore, eventID, adminID string) (*model.Event, error) {
	ev, err := repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.OwnedBy(adminID) {
		return nil, ErrForbidden
	}
	return ev, nil
}
