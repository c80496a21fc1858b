package service

import (
	"context"
	"strings"
)

// EventStrategy is one tier of the event-resolution fallback chain.  It
// returns the event id it settled on, or "" to defer to the next tier.
type EventStrategy interface {
	Name() string
	Resolve(ctx context.Context, events EventStore) (string, error)
}

// ExplicitEvent uses the id the client asked for, as-is.
type ExplicitEvent string

func (e ExplicitEvent) Name() string { return "explicit" }

func (e ExplicitEvent) Resolve(context.Context, EventStore) (string, error) {
	return strings.TrimSpace(string(e)), nil
}

// LatestAdminEvent picks the caller's most recently created event.
type LatestAdminEvent string

func (a LatestAdminEvent) Name() string { return "latest-admin-event" }

func (a LatestAdminEvent) Resolve(ctx context.Context, events EventStore) (string, error) {
	if a == "" {
		return "", nil
	}
	ev, err := events.LatestEventByAdmin(ctx, string(a))
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// LatestEventWithGuests picks the newest event owning at least one guest,
// or one checked-in guest when CheckedInOnly is set.  It lets admin screens
// show something before an event is selected, at the price of ignoring
// ownership.
type LatestEventWithGuests struct {
	CheckedInOnly bool
}

func (l LatestEventWithGuests) Name() string {
	if l.CheckedInOnly {
		return "latest-event-with-checked-in-guests"
	}
	return "latest-event-with-guests"
}

func (l LatestEventWithGuests) Resolve(ctx context.Context, events EventStore) (string, error) {
	ev, err := events.LatestEventWithGuests(ctx, l.CheckedInOnly)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// ResolveEvent walks the strategies in order and returns the first event id
// found together with the name of the tier that produced it.  An empty id
// means no tier matched.
func ResolveEvent(ctx context.Context, events EventStore, chain ...EventStrategy) (string, string, error) {
	for _, st := range chain {
		id, err := st.Resolve(ctx, events)
		if err != nil {
			return "", st.Name(), err
		}
		if id != "" {
			return id, st.Name(), nil
		}
	}
	return "", "", nil
}
