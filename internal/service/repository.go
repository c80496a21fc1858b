package service

import (
	"context"
	"time"

	"github.com/digivite/digivite/internal/model"
)

// EventStore persists events.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// FindEvent matches an id, slug or title, in that order.
	FindEvent(ctx context.Context, ref string) (*model.Event, error)
	ListEventsByAdmin(ctx context.Context, adminID string) ([]model.Event, error)
	LatestEventByAdmin(ctx context.Context, adminID string) (*model.Event, error)
	// LatestEventWithGuests returns the newest event that has at least one
	// guest, or at least one checked-in guest when checkedInOnly is set.
	LatestEventWithGuests(ctx context.Context, checkedInOnly bool) (*model.Event, error)
	EventSlugExists(ctx context.Context, slug string) (bool, error)
}

// RSVPUpdate is the single write performed by a first-time RSVP.
type RSVPUpdate struct {
	Email          string
	Phone          *string
	NumberOfGuests int
	Token          string
	At             time.Time
}

// SeatingUpdate is the write performed by the table allocator.  CheckedIn
// is nil when the caller did not ask to change the flag.
type SeatingUpdate struct {
	TableID     string
	CheckedIn   *bool
	Status      model.GuestStatus
	CheckInTime *time.Time
	At          time.Time
}

// CheckedInFilter drives the checked-in search.
type CheckedInFilter struct {
	EventID     string
	Text        string // name/email substring, '' to skip
	MatchName   bool
	MatchEmail  bool
	TableNumber *int // exact table number, nil to skip
	Offset      int
	Limit       int
}

// GuestStore persists guests.
type GuestStore interface {
	CreateGuest(ctx context.Context, g *model.Guest) error
	GuestSlugExists(ctx context.Context, slug string) (bool, error)
	GetGuest(ctx context.Context, id string) (*model.Guest, error)
	// LockGuest loads a guest and, inside a transaction, holds its row lock
	// until commit.
	LockGuest(ctx context.Context, id string) (*model.Guest, error)
	GetGuestBySlug(ctx context.Context, slug string) (*model.Guest, error)
	FindGuestByTokenOrSlug(ctx context.Context, token string) (*model.Guest, error)
	ListGuests(ctx context.Context, eventID string, limit int) ([]model.GuestListItem, error)
	// RecordRSVP applies u only while the guest still holds a placeholder
	// token and no RSVP time.  It reports whether a row was changed.
	RecordRSVP(ctx context.Context, guestID string, u RSVPUpdate) (bool, error)
	SetGuestStatus(ctx context.Context, guestID string, status model.GuestStatus, at time.Time) error
	MarkGiftSent(ctx context.Context, guestID string, at time.Time) error
	SeatGuest(ctx context.Context, guestID string, u SeatingUpdate) error
	SetPartySize(ctx context.Context, guestID string, n int, at time.Time) error
	// ListInvitationRecipients returns accepted guests with an issued token
	// and an email address.
	ListInvitationRecipients(ctx context.Context, eventID string) ([]model.Guest, error)
}

// TableStore persists tables and derives their occupancy.
type TableStore interface {
	CreateTable(ctx context.Context, t *model.Table) error
	GetTable(ctx context.Context, id string) (*model.Table, error)
	// LockTable loads a table and holds its row lock until commit, which
	// serialises all seat accounting against it.
	LockTable(ctx context.Context, id string) (*model.Table, error)
	ListTables(ctx context.Context, eventID string) ([]model.Table, error)
	MaxTableNumber(ctx context.Context, eventID string) (int, error)
	SeatsUsed(ctx context.Context, tableID string) (int, error)
	DeleteTable(ctx context.Context, id string) error
}

// GiftStore persists gifts.
type GiftStore interface {
	CreateGift(ctx context.Context, g *model.Gift) error
}

// QueryStore serves the admin read side.
type QueryStore interface {
	CountGuestsByStatus(ctx context.Context, eventID string) (map[model.GuestStatus]int, error)
	// ListGuestSummaries returns up to limit guests with the given status,
	// newest first, with their gifts attached newest first.
	ListGuestSummaries(ctx context.Context, eventID string, status model.GuestStatus, limit int) ([]model.GuestSummary, error)
	SearchCheckedIn(ctx context.Context, f CheckedInFilter) ([]model.CheckedInGuest, int, error)
}

// AdminStore persists admin accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
}

// Repository is the store handle every service is built with.  Transaction
// runs fn against a transactional view of the same store; fn's error rolls
// the transaction back.
type Repository interface {
	EventStore
	GuestStore
	TableStore
	GiftStore
	QueryStore
	AdminStore
	Transaction(ctx context.Context, fn func(Repository) error) error
}
