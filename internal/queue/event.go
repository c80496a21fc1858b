// Package queue carries invitation notices over RabbitMQ so that mail
// delivery happens outside the request path.
package queue

import (
    "errors"
    "time"

    "github.com/digivite/digivite/internal/qr"
    "github.com/digivite/digivite/internal/service"
)

// DefaultQueueName is used when NOTIFY_QUEUE is unset.
const DefaultQueueName = "invitation.issued"

// InvitationIssuedEvent is published after a guest's first successful RSVP.
// The QR image is not shipped; consumers render it again from the token.
type InvitationIssuedEvent struct {
    GuestID    string `json:"guest_id"`
    GuestName  string `json:"guest_name"`
    Email      string `json:"email"`
    EventTitle string `json:"event_title"`
    EventDate  string `json:"event_date,omitempty"`
    Venue      string `json:"venue,omitempty"`
    Token      string `json:"token"`
    IssuedAt   string `json:"issued_at"`
}

// NewInvitationIssuedEvent copies n into its wire form.
func NewInvitationIssuedEvent(n service.InvitationNotice, at time.Time) InvitationIssuedEvent {
    ev := InvitationIssuedEvent{
        GuestID:    n.GuestID,
        GuestName:  n.GuestName,
        Email:      n.Email,
        EventTitle: n.EventTitle,
        Venue:      n.Venue,
        Token:      n.Token,
        IssuedAt:   at.UTC().Format(time.RFC3339),
    }
    if !n.EventDate.IsZero() {
        ev.EventDate = n.EventDate.UTC().Format(time.RFC3339)
    }
    return ev
}

// Notice rebuilds the notice, rendering the QR PNG from the token.
func (e InvitationIssuedEvent) Notice() (service.InvitationNotice, error) {
    if e.Token == "" {
        return service.InvitationNotice{}, errors.New("event has no token")
    }
    if e.Email == "" {
        return service.InvitationNotice{}, errors.New("event has no email")
    }
    png, err := qr.PNG(e.Token)
    if err != nil {
        return service.InvitationNotice{}, err
    }
    n := service.InvitationNotice{
        GuestID:    e.GuestID,
        GuestName:  e.GuestName,
        Email:      e.Email,
        EventTitle: e.EventTitle,
        Venue:      e.Venue,
        Token:      e.Token,
        QRPNG:      png,
    }
    if e.EventDate != "" {
        if t, err := time.Parse(time.RFC3339, e.EventDate); err == nil {
            n.EventDate = t
        }
    }
    return n, nil
}
