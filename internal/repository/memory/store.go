// Package memory is an in-process implementation of service.Repository.
// It backs STORE_DRIVER=memory and the test suites.  Transactions are
// serialised by a single mutex and roll back by restoring a snapshot, which
// gives the same guarantees the MySQL store gets from row locks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/service"
)

var _ service.Repository = (*Store)(nil)

type data struct {
	events map[string]model.Event
	guests map[string]model.Guest
	tables map[string]model.Table
	gifts  map[string]model.Gift
	admins map[string]model.Admin
	// seq orders records created within the same instant.
	seq  map[string]uint64
	next uint64
}

func newData() *data {
	return &data{
		events: map[string]model.Event{},
		guests: map[string]model.Guest{},
		tables: map[string]model.Table{},
		gifts:  map[string]model.Gift{},
		admins: map[string]model.Admin{},
		seq:    map[string]uint64{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.guests {
		c.guests[k] = v
	}
	for k, v := range d.tables {
		c.tables[k] = v
	}
	for k, v := range d.gifts {
		c.gifts[k] = v
	}
	for k, v := range d.admins {
		c.admins[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	c.next = d.next
	return c
}

func (d *data) stamp(id string) {
	d.next++
	d.seq[id] = d.next
}

type state struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	d    *data
}

// Store is safe for concurrent use.
type Store struct {
	st   *state
	inTx bool
}

// New returns an empty store.
func New() *Store {
	return &Store{st: &state{d: newData()}}
}

// Transaction runs fn with exclusive write access.  When fn fails every
// change it made is discarded.  Nested calls join the outer transaction.
func (s *Store) Transaction(ctx context.Context, fn func(service.Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	s.st.mu.RLock()
	snapshot := s.st.d.clone()
	s.st.mu.RUnlock()

	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.mu.Lock()
		s.st.d = snapshot
		s.st.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(d *data) error) error {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	return fn(s.st.d)
}

// write applies fn under the data lock.  Outside a transaction it also
// takes the transaction mutex so a rollback cannot discard its change.
func (s *Store) write(fn func(d *data) error) error {
	if !s.inTx {
		s.st.txMu.Lock()
		defer s.st.txMu.Unlock()
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return fn(s.st.d)
}

// newer reports whether record a sorts before b in "newest first" order.
func newer(d *data, aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return d.seq[aID] > d.seq[bID]
}

// ---- events ----

func (s *Store) CreateEvent(_ context.Context, ev *model.Event) error {
	return s.write(func(d *data) error {
		if _, ok := d.events[ev.ID]; ok {
			return fmt.Errorf("event id %s: %w", ev.ID, service.ErrDuplicate)
		}
		for _, e := range d.events {
			if e.Slug == ev.Slug {
				return fmt.Errorf("event slug %s: %w", ev.Slug, service.ErrDuplicate)
			}
		}
		d.events[ev.ID] = *ev
		d.stamp(ev.ID)
		return nil
	})
}

func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	var out *model.Event
	err := s.read(func(d *data) error {
		ev, ok := d.events[id]
		if !ok {
			return service.NotFound("event")
		}
		out = &ev
		return nil
	})
	return out, err
}

func (s *Store) FindEvent(_ context.Context, ref string) (*model.Event, error) {
	var out *model.Event
	err := s.read(func(d *data) error {
		if ev, ok := d.events[ref]; ok {
			out = &ev
			return nil
		}
		events := sortedEvents(d, nil)
		for i := range events {
			if events[i].Slug == ref {
				out = &events[i]
				return nil
			}
		}
		for i := range events {
			if events[i].Title == ref {
				out = &events[i]
				return nil
			}
		}
		return service.NotFound("event")
	})
	return out, err
}

// sortedEvents returns the events accepted by keep, newest first.
func sortedEvents(d *data, keep func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0, len(d.events))
	for _, e := range d.events {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(d, out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListEventsByAdmin(_ context.Context, adminID string) ([]model.Event, error) {
	var out []model.Event
	err := s.read(func(d *data) error {
		out = sortedEvents(d, func(e model.Event) bool { return e.AdminID == adminID })
		return nil
	})
	return out, err
}

func (s *Store) LatestEventByAdmin(ctx context.Context, adminID string) (*model.Event, error) {
	events, err := s.ListEventsByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, service.NotFound("event")
	}
	return &events[0], nil
}

func (s *Store) LatestEventWithGuests(_ context.Context, checkedInOnly bool) (*model.Event, error) {
	var out *model.Event
	err := s.read(func(d *data) error {
		has := map[string]bool{}
		for _, g := range d.guests {
			if !checkedInOnly || g.CheckedIn {
				has[g.EventID] = true
			}
		}
		events := sortedEvents(d, func(e model.Event) bool { return has[e.ID] })
		if len(events) == 0 {
			return service.NotFound("event")
		}
		out = &events[0]
		return nil
	})
	return out, err
}

func (s *Store) EventSlugExists(_ context.Context, slug string) (bool, error) {
	found := false
	err := s.read(func(d *data) error {
		for _, e := range d.events {
			if e.Slug == slug {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// ---- guests ----

func (s *Store) CreateGuest(_ context.Context, g *model.Guest) error {
	return s.write(func(d *data) error {
		if _, ok := d.events[g.EventID]; !ok {
			return service.NotFound("event")
		}
		if _, ok := d.guests[g.ID]; ok {
			return fmt.Errorf("guest id %s: %w", g.ID, service.ErrDuplicate)
		}
		for _, other := range d.guests {
			if other.Slug == g.Slug {
				return fmt.Errorf("guest slug %s: %w", g.Slug, service.ErrDuplicate)
			}
			if other.QRCodeToken == g.QRCodeToken {
				return fmt.Errorf("guest token: %w", service.ErrDuplicate)
			}
		}
		if g.TableID != nil {
			if _, ok := d.tables[*g.TableID]; !ok {
				return service.NotFound("table")
			}
		}
		d.guests[g.ID] = *g
		d.stamp(g.ID)
		return nil
	})
}

func (s *Store) GuestSlugExists(_ context.Context, slug string) (bool, error) {
	found := false
	err := s.read(func(d *data) error {
		for _, g := range d.guests {
			if g.Slug == slug {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) GetGuest(_ context.Context, id string) (*model.Guest, error) {
	var out *model.Guest
	err := s.read(func(d *data) error {
		g, ok := d.guests[id]
		if !ok {
			return service.NotFound("guest")
		}
		out = &g
		return nil
	})
	return out, err
}

// LockGuest is GetGuest; the transaction mutex already provides exclusion.
func (s *Store) LockGuest(ctx context.Context, id string) (*model.Guest, error) {
	return s.GetGuest(ctx, id)
}

func (s *Store) GetGuestBySlug(_ context.Context, slug string) (*model.Guest, error) {
	var out *model.Guest
	err := s.read(func(d *data) error {
		for _, g := range d.guests {
			if g.Slug == slug {
				out = &g
				return nil
			}
		}
		return service.NotFound("guest")
	})
	return out, err
}

func (s *Store) FindGuestByTokenOrSlug(_ context.Context, token string) (*model.Guest, error) {
	var out *model.Guest
	err := s.read(func(d *data) error {
		var bySlug *model.Guest
		for _, g := range d.guests {
			if g.QRCodeToken == token {
				out = &g
				return nil
			}
			if g.Slug == token && bySlug == nil {
				gg := g
				bySlug = &gg
			}
		}
		if bySlug == nil {
			return service.NotFound("guest")
		}
		out = bySlug
		return nil
	})
	return out, err
}

// sortedGuests returns the guests accepted by keep, newest first.
func sortedGuests(d *data, keep func(model.Guest) bool) []model.Guest {
	out := make([]model.Guest, 0)
	for _, g := range d.guests {
		if keep == nil || keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(d, out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListGuests(_ context.Context, eventID string, limit int) ([]model.GuestListItem, error) {
	out := []model.GuestListItem{}
	err := s.read(func(d *data) error {
		guests := sortedGuests(d, func(g model.Guest) bool { return eventID == "" || g.EventID == eventID })
		for _, g := range guests {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, model.GuestListItem{
				ID: g.ID, FullName: g.FullName, Slug: g.Slug,
				Email: g.Email, Phone: g.Phone, CreatedAt: g.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) RecordRSVP(_ context.Context, guestID string, u service.RSVPUpdate) (bool, error) {
	applied := false
	err := s.write(func(d *data) error {
		g, ok := d.guests[guestID]
		if !ok {
			return service.NotFound("guest")
		}
		if g.RSVPAt != nil || !model.IsPlaceholderToken(g.QRCodeToken) {
			return nil
		}
		for id, other := range d.guests {
			if id != guestID && other.QRCodeToken == u.Token {
				return fmt.Errorf("guest token: %w", service.ErrDuplicate)
			}
		}
		email := u.Email
		at := u.At
		g.Email = &email
		g.Phone = u.Phone
		g.NumberOfGuests = u.NumberOfGuests
		g.Status = model.StatusAccepted
		g.QRCodeToken = u.Token
		g.RSVPAt = &at
		g.UpdatedAt = at
		d.guests[guestID] = g
		applied = true
		return nil
	})
	return applied, err
}

func (s *Store) updateGuest(guestID string, fn func(g *model.Guest)) error {
	return s.write(func(d *data) error {
		g, ok := d.guests[guestID]
		if !ok {
			return service.NotFound("guest")
		}
		fn(&g)
		d.guests[guestID] = g
		return nil
	})
}

func (s *Store) SetGuestStatus(_ context.Context, guestID string, status model.GuestStatus, at time.Time) error {
	return s.updateGuest(guestID, func(g *model.Guest) {
		g.Status = status
		g.UpdatedAt = at
	})
}

func (s *Store) MarkGiftSent(_ context.Context, guestID string, at time.Time) error {
	return s.updateGuest(guestID, func(g *model.Guest) {
		g.GiftSent = true
		g.UpdatedAt = at
	})
}

func (s *Store) SeatGuest(_ context.Context, guestID string, u service.SeatingUpdate) error {
	s.st.mu.RLock()
	_, ok := s.st.d.tables[u.TableID]
	s.st.mu.RUnlock()
	if !ok {
		return service.NotFound("table")
	}
	return s.updateGuest(guestID, func(g *model.Guest) {
		tableID := u.TableID
		g.TableID = &tableID
		if u.CheckedIn != nil {
			g.CheckedIn = *u.CheckedIn
		}
		g.Status = u.Status
		g.CheckInTime = u.CheckInTime
		g.UpdatedAt = u.At
	})
}

func (s *Store) SetPartySize(_ context.Context, guestID string, n int, at time.Time) error {
	if n < 1 {
		return fmt.Errorf("number_of_guests must be >= 1, got %d", n)
	}
	return s.updateGuest(guestID, func(g *model.Guest) {
		g.NumberOfGuests = n
		g.UpdatedAt = at
	})
}

func (s *Store) ListInvitationRecipients(_ context.Context, eventID string) ([]model.Guest, error) {
	var out []model.Guest
	err := s.read(func(d *data) error {
		out = sortedGuests(d, func(g model.Guest) bool {
			return (eventID == "" || g.EventID == eventID) &&
				g.Status == model.StatusAccepted &&
				!model.IsPlaceholderToken(g.QRCodeToken) &&
				g.Email != nil && *g.Email != ""
		})
		// oldest first, the order invitations were originally sent in
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return nil
	})
	return out, err
}

// ---- tables ----

func (s *Store) CreateTable(_ context.Context, t *model.Table) error {
	return s.write(func(d *data) error {
		if _, ok := d.events[t.EventID]; !ok {
			return service.NotFound("event")
		}
		for _, other := range d.tables {
			if other.EventID == t.EventID && other.Number == t.Number {
				return fmt.Errorf("table number %d: %w", t.Number, service.ErrDuplicate)
			}
		}
		d.tables[t.ID] = *t
		d.stamp(t.ID)
		return nil
	})
}

func (s *Store) GetTable(_ context.Context, id string) (*model.Table, error) {
	var out *model.Table
	err := s.read(func(d *data) error {
		t, ok := d.tables[id]
		if !ok {
			return service.NotFound("table")
		}
		out = &t
		return nil
	})
	return out, err
}

// LockTable is GetTable; see LockGuest.
func (s *Store) LockTable(ctx context.Context, id string) (*model.Table, error) {
	return s.GetTable(ctx, id)
}

func (s *Store) ListTables(_ context.Context, eventID string) ([]model.Table, error) {
	out := []model.Table{}
	err := s.read(func(d *data) error {
		for _, t := range d.tables {
			if t.EventID == eventID {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
		return nil
	})
	return out, err
}

func (s *Store) MaxTableNumber(_ context.Context, eventID string) (int, error) {
	max := 0
	err := s.read(func(d *data) error {
		for _, t := range d.tables {
			if t.EventID == eventID && t.Number > max {
				max = t.Number
			}
		}
		return nil
	})
	return max, err
}

func (s *Store) SeatsUsed(_ context.Context, tableID string) (int, error) {
	used := 0
	err := s.read(func(d *data) error {
		for _, g := range d.guests {
			if g.AtTable(tableID) {
				used += g.NumberOfGuests
			}
		}
		return nil
	})
	return used, err
}

func (s *Store) DeleteTable(_ context.Context, id string) error {
	return s.write(func(d *data) error {
		if _, ok := d.tables[id]; !ok {
			return service.NotFound("table")
		}
		for _, g := range d.guests {
			if g.AtTable(id) {
				return fmt.Errorf("table %s is referenced by guests: %w", id, service.ErrConflict)
			}
		}
		delete(d.tables, id)
		delete(d.seq, id)
		return nil
	})
}

// ---- gifts ----

func (s *Store) CreateGift(_ context.Context, gift *model.Gift) error {
	return s.write(func(d *data) error {
		if _, ok := d.guests[gift.GuestID]; !ok {
			return service.NotFound("guest")
		}
		d.gifts[gift.ID] = *gift
		d.stamp(gift.ID)
		return nil
	})
}

// ---- admin queries ----

func (s *Store) CountGuestsByStatus(_ context.Context, eventID string) (map[model.GuestStatus]int, error) {
	out := map[model.GuestStatus]int{}
	err := s.read(func(d *data) error {
		for _, g := range d.guests {
			if g.EventID == eventID {
				out[g.Status]++
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) ListGuestSummaries(_ context.Context, eventID string, status model.GuestStatus, limit int) ([]model.GuestSummary, error) {
	out := []model.GuestSummary{}
	err := s.read(func(d *data) error {
		guests := sortedGuests(d, func(g model.Guest) bool { return g.EventID == eventID && g.Status == status })
		for _, g := range guests {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, model.GuestSummary{
				ID:             g.ID,
				FullName:       g.FullName,
				Email:          g.Email,
				Phone:          g.Phone,
				NumberOfGuests: g.NumberOfGuests,
				TableNumber:    tableNumber(d, g.TableID),
				CheckedIn:      g.CheckedIn,
				CheckInTime:    g.CheckInTime,
				Status:         g.Status,
				GiftSent:       g.GiftSent,
				Gifts:          giftsOf(d, g.ID),
				CreatedAt:      g.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func tableNumber(d *data, tableID *string) *int {
	if tableID == nil {
		return nil
	}
	t, ok := d.tables[*tableID]
	if !ok {
		return nil
	}
	n := t.Number
	return &n
}

func giftsOf(d *data, guestID string) []model.Gift {
	out := []model.Gift{}
	for _, g := range d.gifts {
		if g.GuestID == guestID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(d, out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (s *Store) SearchCheckedIn(_ context.Context, f service.CheckedInFilter) ([]model.CheckedInGuest, int, error) {
	out := []model.CheckedInGuest{}
	total := 0
	err := s.read(func(d *data) error {
		text := strings.ToLower(f.Text)
		filtered := text != "" || f.TableNumber != nil
		var matches []model.Guest
		for _, g := range d.guests {
			if g.EventID != f.EventID || !g.CheckedIn {
				continue
			}
			if filtered && !matchCheckedIn(d, g, f, text) {
				continue
			}
			matches = append(matches, g)
		}
		sort.Slice(matches, func(i, j int) bool {
			a, b := matches[i].CheckInTime, matches[j].CheckInTime
			switch {
			case a != nil && b != nil && !a.Equal(*b):
				return a.After(*b)
			case a != nil && b == nil:
				return true
			case a == nil && b != nil:
				return false
			}
			return newer(d, matches[i].ID, matches[i].CreatedAt, matches[j].ID, matches[j].CreatedAt)
		})
		total = len(matches)
		if f.Offset >= len(matches) {
			return nil
		}
		end := len(matches)
		if f.Limit > 0 && f.Offset+f.Limit < end {
			end = f.Offset + f.Limit
		}
		for _, g := range matches[f.Offset:end] {
			out = append(out, model.CheckedInGuest{
				ID:             g.ID,
				FullName:       g.FullName,
				Phone:          g.Phone,
				Email:          g.Email,
				NumberOfGuests: g.NumberOfGuests,
				TableID:        g.TableID,
				TableNumber:    tableNumber(d, g.TableID),
				CheckInTime:    g.CheckInTime,
				CreatedAt:      g.CreatedAt,
			})
		}
		return nil
	})
	return out, total, err
}

func matchCheckedIn(d *data, g model.Guest, f service.CheckedInFilter, text string) bool {
	if text != "" {
		if f.MatchName && strings.Contains(strings.ToLower(g.FullName), text) {
			return true
		}
		if f.MatchEmail && g.Email != nil && strings.Contains(strings.ToLower(*g.Email), text) {
			return true
		}
	}
	if f.TableNumber != nil {
		if n := tableNumber(d, g.TableID); n != nil && *n == *f.TableNumber {
			return true
		}
	}
	return false
}

// ---- admins ----

func (s *Store) CreateAdmin(_ context.Context, a *model.Admin) error {
	return s.write(func(d *data) error {
		email := strings.ToLower(a.Email)
		for _, other := range d.admins {
			if strings.ToLower(other.Email) == email {
				return fmt.Errorf("admin email: %w", service.ErrDuplicate)
			}
		}
		d.admins[a.ID] = *a
		d.stamp(a.ID)
		return nil
	})
}

func (s *Store) GetAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	var out *model.Admin
	email = strings.ToLower(email)
	err := s.read(func(d *data) error {
		for _, a := range d.admins {
			if strings.ToLower(a.Email) == email {
				out = &a
				return nil
			}
		}
		return service.NotFound("admin")
	})
	return out, err
}

func (s *Store) GetAdminByID(_ context.Context, id string) (*model.Admin, error) {
	var out *model.Admin
	err := s.read(func(d *data) error {
		a, ok := d.admins[id]
		if !ok {
			return service.NotFound("admin")
		}
		out = &a
		return nil
	})
	return out, err
}
