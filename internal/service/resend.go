package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/qr"
)

// ResendOptions selects which invitations to send again.  Only, when set,
// keeps guests whose email or full name matches one of the entries
// (case-insensitive).  With BatchSize > 0, BatchPause replaces Delay after
// every BatchSize sends so relays with hourly quotas can recover.
type ResendOptions struct {
	EventRef   string
	Only       []string
	Delay      time.Duration
	BatchSize  int
	BatchPause time.Duration
	DryRun     bool
}

func (o ResendOptions) pauseBefore(i int) time.Duration {
	if i == 0 {
		return 0
	}
	if o.BatchSize > 0 && i%o.BatchSize == 0 {
		return o.BatchPause
	}
	return o.Delay
}

// ResendFailure is one guest whose invitation could not be delivered.
type ResendFailure struct {
	GuestID string
	Name    string
	Email   string
	Err     error
}

// ResendReport summarises a resend run.  Unmatched lists Only entries that
// matched no recipient.
type ResendReport struct {
	Recipients []model.Guest
	Sent       int
	Failed     []ResendFailure
	Unmatched  []string
}

// Resender re-delivers QR invitations to guests who already accepted, for
// example after an SMTP outage.  Tokens are never re-minted.
type Resender struct {
	repo     Repository
	notifier Notifier
	log      zerolog.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewResender wires the resend job.
func NewResender(repo Repository, notifier Notifier, log zerolog.Logger) *Resender {
	if repo == nil || notifier == nil {
		panic("nil dependency passed to NewResender")
	}
	return &Resender{repo: repo, notifier: notifier, log: log.With().Str("component", "resend").Logger(), sleep: sleepCtx}
}

// Run sends one invitation per recipient, pausing between sends.
// Delivery failures are collected, not returned; Run only fails when the
// recipients cannot be loaded or ctx ends.
func (r *Resender) Run(ctx context.Context, opt ResendOptions) (ResendReport, error) {
	var ev *model.Event
	if ref := strings.TrimSpace(opt.EventRef); ref != "" {
		e, err := r.repo.FindEvent(ctx, ref)
		if err != nil {
			return ResendReport{}, err
		}
		ev = e
	}
	eventID := ""
	if ev != nil {
		eventID = ev.ID
	}
	guests, err := r.repo.ListInvitationRecipients(ctx, eventID)
	if err != nil {
		return ResendReport{}, fmt.Errorf("list recipients: %w", err)
	}

	rep := ResendReport{}
	rep.Recipients, rep.Unmatched = filterRecipients(guests, opt.Only)
	if opt.DryRun {
		return rep, nil
	}

	events := map[string]*model.Event{}
	if ev != nil {
		events[ev.ID] = ev
	}
	for i, g := range rep.Recipients {
		if d := opt.pauseBefore(i); d > 0 {
			if err := r.sleep(ctx, d); err != nil {
				return rep, err
			}
		}
		notice, err := r.notice(ctx, events, g)
		if err == nil {
			err = r.notifier.InvitationIssued(ctx, notice)
		}
		if err != nil {
			r.log.Warn().Err(err).Str("guest_id", g.ID).Msg("resend failed")
			rep.Failed = append(rep.Failed, ResendFailure{GuestID: g.ID, Name: g.FullName, Email: *g.Email, Err: err})
			continue
		}
		rep.Sent++
		r.log.Info().Str("guest_id", g.ID).Int("n", i+1).Int("of", len(rep.Recipients)).Msg("invitation resent")
	}
	return rep, nil
}

func (r *Resender) notice(ctx context.Context, events map[string]*model.Event, g model.Guest) (InvitationNotice, error) {
	ev, ok := events[g.EventID]
	if !ok {
		e, err := r.repo.GetEvent(ctx, g.EventID)
		if err != nil {
			return InvitationNotice{}, err
		}
		events[g.EventID] = e
		ev = e
	}
	png, err := qr.PNG(g.QRCodeToken)
	if err != nil {
		return InvitationNotice{}, fmt.Errorf("render qr: %w", err)
	}
	n := InvitationNotice{
		GuestID:    g.ID,
		GuestName:  g.FullName,
		Email:      *g.Email,
		EventTitle: ev.Title,
		EventDate:  ev.Date,
		Token:      g.QRCodeToken,
		QRPNG:      png,
	}
	if ev.Venue != nil {
		n.Venue = *ev.Venue
	}
	return n, nil
}

func filterRecipients(guests []model.Guest, only []string) ([]model.Guest, []string) {
	if len(only) == 0 {
		return guests, nil
	}
	want := make(map[string]bool, len(only))
	for _, o := range only {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			want[o] = false
		}
	}
	var out []model.Guest
	for _, g := range guests {
		keys := []string{strings.ToLower(g.FullName)}
		if g.Email != nil {
			keys = append(keys, strings.ToLower(*g.Email))
		}
		hit := false
		for _, k := range keys {
			if _, ok := want[k]; ok {
				want[k] = true
				hit = true
			}
		}
		if hit {
			out = append(out, g)
		}
	}
	var unmatched []string
	for _, o := range only {
		k := strings.ToLower(strings.TrimSpace(o))
		if matched, ok := want[k]; ok && !matched {
			unmatched = append(unmatched, o)
			delete(want, k)
		}
	}
	return out, unmatched
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
