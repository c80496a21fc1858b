package service

import (
	"context"
	"time"
)

// InvitationNotice is everything a notifier needs to send the QR invitation
// after a successful RSVP.
type InvitationNotice struct {
	GuestID    string
	GuestName  string
	Email      string
	EventTitle string
	EventDate  time.Time
	Venue      string
	Token      string
	QRPNG      []byte
}

// Notifier delivers invitations.  Implementations may send synchronously
// (SMTP) or hand the notice to a queue.  Failures never undo an RSVP.
type Notifier interface {
	InvitationIssued(ctx context.Context, n InvitationNotice) error
}

// NopNotifier drops every notice.
type NopNotifier struct{}

// InvitationIssued implements Notifier.
func (NopNotifier) InvitationIssued(context.Context, InvitationNotice) error { return nil }
