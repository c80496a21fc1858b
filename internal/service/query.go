package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/model"
)

const (
	DefaultStatusLimit = 50
	MaxStatusLimit     = 500
	DefaultPageLimit   = 50
	MaxPageLimit       = 200
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// StatusQuery selects the event and the per-status list size.
type StatusQuery struct {
	EventID string
	Limit   int
}

// StatusReport is the admin dashboard payload.
type StatusReport struct {
	Counts         map[model.GuestStatus]int                  `json:"counts"`
	GuestsByStatus map[model.GuestStatus][]model.GuestSummary `json:"guestsByStatus"`
}

// CheckedInQuery searches checked-in guests.  Field is name, email, table or
// all.
type CheckedInQuery struct {
	EventID string
	Q       string
	Field   string
	Page    int
	Limit   int
}

// CheckedInPage is one page of the checked-in search.  Total counts every
// match, not just this page.
type CheckedInPage struct {
	Guests []model.CheckedInGuest `json:"guests"`
	Total  int                    `json:"total"`
}

// AdminQuery is the read side of the admin dashboard.
type AdminQuery struct {
	repo Repository
	log  zerolog.Logger
}

// NewAdminQuery wires the admin query layer.
func NewAdminQuery(repo Repository, log zerolog.Logger) *AdminQuery {
	if repo == nil {
		panic("nil repository passed to NewAdminQuery")
	}
	return &AdminQuery{repo: repo, log: log.With().Str("component", "admin-query").Logger()}
}

// Status counts the event's guests per status and lists the newest of each.
func (q *AdminQuery) Status(ctx context.Context, adminID string, in StatusQuery) (StatusReport, error) {
	if adminID == "" {
		return StatusReport{}, ErrUnauthorized
	}
	report := emptyStatusReport()
	eventID, tier, err := ResolveEvent(ctx, q.repo,
		ExplicitEvent(in.EventID),
		LatestAdminEvent(adminID),
		LatestEventWithGuests{},
	)
	if err != nil {
		return StatusReport{}, err
	}
	if eventID == "" {
		return report, nil
	}
	q.log.Debug().Str("event_id", eventID).Str("tier", tier).Msg("status event resolved")

	limit := clamp(in.Limit, DefaultStatusLimit, MaxStatusLimit)
	counts, err := q.repo.CountGuestsByStatus(ctx, eventID)
	if err != nil {
		return StatusReport{}, err
	}
	for _, st := range model.Statuses {
		report.Counts[st] = counts[st]
		list, err := q.repo.ListGuestSummaries(ctx, eventID, st, limit)
		if err != nil {
			return StatusReport{}, err
		}
		if list != nil {
			report.GuestsByStatus[st] = list
		}
	}
	return report, nil
}

// CheckedIn pages through the event's checked-in guests.
func (q *AdminQuery) CheckedIn(ctx context.Context, adminID string, in CheckedInQuery) (CheckedInPage, error) {
	if adminID == "" {
		return CheckedInPage{}, ErrUnauthorized
	}
	empty := CheckedInPage{Guests: []model.CheckedInGuest{}, Total: 0}
	eventID, tier, err := ResolveEvent(ctx, q.repo,
		ExplicitEvent(in.EventID),
		LatestAdminEvent(adminID),
		LatestEventWithGuests{CheckedInOnly: true},
	)
	if err != nil {
		return CheckedInPage{}, err
	}
	if eventID == "" {
		return empty, nil
	}
	q.log.Debug().Str("event_id", eventID).Str("tier", tier).Msg("checked-in event resolved")

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := clamp(in.Limit, DefaultPageLimit, MaxPageLimit)
	filter, ok := buildCheckedInFilter(eventID, in.Q, in.Field)
	if !ok {
		return empty, nil
	}
	filter.Offset = (page - 1) * limit
	filter.Limit = limit

	guests, total, err := q.repo.SearchCheckedIn(ctx, filter)
	if err != nil {
		return CheckedInPage{}, err
	}
	if guests == nil {
		guests = []model.CheckedInGuest{}
	}
	return CheckedInPage{Guests: guests, Total: total}, nil
}

// buildCheckedInFilter translates the search box into a filter.  It
// returns false when the query can match nothing, e.g. a non-numeric table
// search.
func buildCheckedInFilter(eventID, q, field string) (CheckedInFilter, bool) {
	f := CheckedInFilter{EventID: eventID}
	q = strings.TrimSpace(q)
	if q == "" {
		return f, true
	}
	var tableNum *int
	if digitsOnly.MatchString(q) {
		if n, err := strconv.Atoi(q); err == nil {
			tableNum = &n
		}
	}
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		f.Text, f.MatchName = q, true
	case "email":
		f.Text, f.MatchEmail = q, true
	case "table":
		if tableNum == nil {
			return f, false
		}
		f.TableNumber = tableNum
	default:
		f.Text, f.MatchName, f.MatchEmail = q, true, true
		f.TableNumber = tableNum
	}
	return f, true
}

func emptyStatusReport() StatusReport {
	r := StatusReport{
		Counts:         make(map[model.GuestStatus]int, len(model.Statuses)),
		GuestsByStatus: make(map[model.GuestStatus][]model.GuestSummary, len(model.Statuses)),
	}
	for _, st := range model.Statuses {
		r.Counts[st] = 0
		r.GuestsByStatus[st] = []model.GuestSummary{}
	}
	return r
}

func clamp(v, def, max int) int {
	if v == 0 {
		return def
	}
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}
