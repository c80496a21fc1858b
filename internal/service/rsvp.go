package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/qr"
)

// RSVPInput is a guest's confirmation.  Phone and NumberOfGuests are
// optional; NumberOfGuests defaults to 1.
type RSVPInput struct {
	Slug           string
	Email          string
	Phone          *string
	NumberOfGuests *int
}

// RSVPGuest is the guest as echoed back to the RSVP page.
type RSVPGuest struct {
	ID             string            `json:"id"`
	Slug           string            `json:"slug"`
	FullName       string            `json:"fullName"`
	Email          *string           `json:"email"`
	Phone          *string           `json:"phone"`
	NumberOfGuests int               `json:"numberOfGuests"`
	Status         model.GuestStatus `json:"status"`
	RSVPAt         *time.Time        `json:"rsvpAt"`
	QRCodeToken    string            `json:"qrCodeToken"`
	QRDataURL      string            `json:"qrDataUrl"`
}

// RSVPResult tells the caller whether this call issued the token.
type RSVPResult struct {
	Already bool      `json:"already"`
	Guest   RSVPGuest `json:"guest"`
}

// GiftInput announces a gift.
type GiftInput struct {
	Slug     string
	Amount   *float64
	Note     *string
	Provider *string
}

// RSVPService implements the guest-facing mutations: RSVP, decline and
// gift registration.
type RSVPService struct {
	repo          Repository
	notifier      Notifier
	notifyTimeout time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

// DefaultNotifyTimeout bounds one invitation delivery when the caller has
// not set a budget with SetNotifyTimeout.
const DefaultNotifyTimeout = 30 * time.Second

// NewRSVPService wires the RSVP processor.  A nil notifier disables email.
func NewRSVPService(repo Repository, notifier Notifier, log zerolog.Logger) *RSVPService {
	if repo == nil {
		panic("nil repository passed to NewRSVPService")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RSVPService{
		repo:          repo,
		notifier:      notifier,
		notifyTimeout: DefaultNotifyTimeout,
		log:           log.With().Str("component", "rsvp").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifyTimeout sets the delivery budget.  It is independent of the
// request deadline: a slow relay or a client hanging up must not cost the
// guest their invitation.
func (s *RSVPService) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		s.notifyTimeout = d
	}
}

// RSVP confirms attendance.  The first successful call for a guest mints
// the check-in token; every later call returns the existing code without
// touching the record.  Mail delivery is best effort.
func (s *RSVPService) RSVP(ctx context.Context, in RSVPInput) (RSVPResult, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Email = strings.TrimSpace(in.Email)
	if in.Slug == "" {
		return RSVPResult{}, Required("slug")
	}
	if in.Email == "" {
		return RSVPResult{}, Required("email")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return RSVPResult{}, Invalid("email", "email is not a valid address")
	}
	party := 1
	if in.NumberOfGuests != nil {
		party = *in.NumberOfGuests
	}
	if party < 1 {
		return RSVPResult{}, Invalid("numberOfGuests", "numberOfGuests must be at least 1")
	}

	guest, err := s.repo.GetGuestBySlug(ctx, in.Slug)
	if err != nil {
		return RSVPResult{}, err
	}
	if guest.HasResponded() {
		return s.alreadyResponded(guest)
	}

	token, err := NewQRToken()
	if err != nil {
		return RSVPResult{}, fmt.Errorf("mint token: %w", err)
	}
	png, dataURL, err := qr.Encode(token)
	if err != nil {
		return RSVPResult{}, fmt.Errorf("render qr: %w", err)
	}
	phone := guest.Phone
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		p := strings.TrimSpace(*in.Phone)
		phone = &p
	}
	now := s.now()
	applied, err := s.repo.RecordRSVP(ctx, guest.ID, RSVPUpdate{
		Email:          in.Email,
		Phone:          phone,
		NumberOfGuests: party,
		Token:          token,
		At:             now,
	})
	if err != nil {
		return RSVPResult{}, fmt.Errorf("record rsvp: %w", err)
	}
	updated, err := s.repo.GetGuest(ctx, guest.ID)
	if err != nil {
		return RSVPResult{}, err
	}
	if !applied {
		// a concurrent request issued the token first
		return s.alreadyResponded(updated)
	}

	s.notify(ctx, updated, token, png)

	return RSVPResult{Already: false, Guest: rsvpGuest(updated, dataURL)}, nil
}

func (s *RSVPService) alreadyResponded(g *model.Guest) (RSVPResult, error) {
	token := g.QRCodeToken
	if model.IsPlaceholderToken(token) {
		// RSVP time recorded without a real token: render a transient code
		// that is shown once and never stored.
		t, err := NewQRToken()
		if err != nil {
			return RSVPResult{}, fmt.Errorf("mint token: %w", err)
		}
		token = t
	}
	_, dataURL, err := qr.Encode(token)
	if err != nil {
		return RSVPResult{}, fmt.Errorf("render qr: %w", err)
	}
	out := rsvpGuest(g, dataURL)
	out.QRCodeToken = token
	return RSVPResult{Already: true, Guest: out}, nil
}

func (s *RSVPService) notify(ctx context.Context, g *model.Guest, token string, png []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	notice := InvitationNotice{
		GuestID:    g.ID,
		GuestName:  g.FullName,
		Token:      token,
		QRPNG:      png,
		EventTitle: "The Event",
	}
	if g.Email != nil {
		notice.Email = *g.Email
	}
	if ev, err := s.repo.GetEvent(ctx, g.EventID); err == nil {
		notice.EventTitle = ev.Title
		notice.EventDate = ev.Date
		if ev.Venue != nil {
			notice.Venue = *ev.Venue
		}
	} else {
		s.log.Warn().Err(err).Str("guest_id", g.ID).Msg("event lookup for invitation failed")
	}
	if err := s.notifier.InvitationIssued(ctx, notice); err != nil {
		s.log.Warn().Err(err).Str("guest_id", g.ID).Msg("invitation delivery failed; rsvp kept")
	}
}

// Decline marks the guest as not attending.  Repeating it is harmless.
func (s *RSVPService) Decline(ctx context.Context, slug string) (*model.Guest, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, Required("slug")
	}
	g, err := s.repo.GetGuestBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetGuestStatus(ctx, g.ID, model.StatusDeclined, s.now()); err != nil {
		return nil, fmt.Errorf("decline: %w", err)
	}
	return s.repo.GetGuest(ctx, g.ID)
}

// RecordGift appends a gift for the guest and flags giftSent in one
// transaction.
func (s *RSVPService) RecordGift(ctx context.Context, in GiftInput) (*model.Gift, error) {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		return nil, Required("slug")
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, Invalid("amount", "amount must not be negative")
	}
	var gift *model.Gift
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		g, err := tx.GetGuestBySlug(ctx, slug)
		if err != nil {
			return err
		}
		now := s.now()
		gift = &model.Gift{
			ID:        uuid.NewString(),
			EventID:   g.EventID,
			GuestID:   g.ID,
			Amount:    in.Amount,
			Note:      trimmedOrNil(in.Note),
			Provider:  trimmedOrNil(in.Provider),
			CreatedAt: now,
		}
		if err := tx.CreateGift(ctx, gift); err != nil {
			return fmt.Errorf("create gift: %w", err)
		}
		return tx.MarkGiftSent(ctx, g.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return gift, nil
}

// GuestStatus returns the guest behind a slug together with the data URI
// of its QR code.  The data URI is empty while no token has been issued.
func (s *RSVPService) GuestStatus(ctx context.Context, slug string) (RSVPGuest, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return RSVPGuest{}, Required("slug")
	}
	g, err := s.repo.GetGuestBySlug(ctx, slug)
	if err != nil {
		return RSVPGuest{}, err
	}
	dataURL := ""
	if !model.IsPlaceholderToken(g.QRCodeToken) {
		_, dataURL, err = qr.Encode(g.QRCodeToken)
		if err != nil {
			return RSVPGuest{}, fmt.Errorf("render qr: %w", err)
		}
	}
	return rsvpGuest(g, dataURL), nil
}

func rsvpGuest(g *model.Guest, dataURL string) RSVPGuest {
	return RSVPGuest{
		ID:             g.ID,
		Slug:           g.Slug,
		FullName:       g.FullName,
		Email:          g.Email,
		Phone:          g.Phone,
		NumberOfGuests: g.NumberOfGuests,
		Status:         g.Status,
		RSVPAt:         g.RSVPAt,
		QRCodeToken:    g.QRCodeToken,
		QRDataURL:      dataURL,
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// isNotFound reports whether err wraps ErrNotFound.
func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
