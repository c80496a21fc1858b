// Package mail delivers invitation emails over SMTP with go-mail.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/digivite/digivite/internal/config"
	"github.com/digivite/digivite/internal/service"
)

// QRFileName is the name of the inline QR attachment.  go-mail uses it as
// the Content-ID, so the HTML refers to it as cid:invitation-qr.png.
const QRFileName = "invitation-qr.png"

var invitationTmpl = template.Must(template.New("invitation").Parse(`<div style="font-family: system-ui, -apple-system, 'Segoe UI', Roboto, Arial; color:#222;">
  <h2 style="color:#722F37; margin-bottom:6px">{{.EventTitle}}</h2>
  <p>Dear {{.GuestName}},</p>
  <p>Thank you for confirming your attendance. Please present the QR code below at the event entrance for verification.</p>
  {{- if .When}}
  <p><strong>When:</strong> {{.When}}</p>
  {{- end}}
  {{- if .Venue}}
  <p><strong>Where:</strong> {{.Venue}}</p>
  {{- end}}
  <div style="margin:20px 0; text-align:center">
    <img src="cid:{{.CID}}" alt="Invitation QR code" style="max-width:260px; height:auto;"/>
  </div>
  <p>If you have any questions, please reach out.</p>
  <p style="color:#777; font-size:12px">This email was sent from DigiVite.</p>
</div>
`))

type invitationView struct {
	EventTitle string
	GuestName  string
	When       string
	Venue      string
	CID        string
}

// sendFunc delivers a finished message.
type sendFunc func(ctx context.Context, m *gomail.Msg) error

// Mailer sends invitation emails.  It implements service.Notifier.
type Mailer struct {
	from string
	send sendFunc
	log  zerolog.Logger
}

var _ service.Notifier = (*Mailer)(nil)

// NewMailer builds an SMTP client from mc.  The connection is opened per
// delivery and bounded by mc.Timeout.
func NewMailer(mc config.MailConfig, log zerolog.Logger) (*Mailer, error) {
	if mc.From == "" {
		return nil, errors.New("mail: EMAIL_FROM or SMTP_USER must be set")
	}
	opts := []gomail.Option{
		gomail.WithPort(mc.Port),
		gomail.WithTimeout(mc.Timeout),
	}
	if mc.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if mc.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(mc.User),
			gomail.WithPassword(mc.Pass),
		)
	}
	client, err := gomail.NewClient(mc.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: new client: %w", err)
	}
	return newMailer(mc.From, func(ctx context.Context, m *gomail.Msg) error {
		return client.DialAndSendWithContext(ctx, m)
	}, log), nil
}

func newMailer(from string, send sendFunc, log zerolog.Logger) *Mailer {
	return &Mailer{from: from, send: send, log: log.With().Str("component", "mailer").Logger()}
}

// InvitationIssued emails the QR invitation to the guest.
func (m *Mailer) InvitationIssued(ctx context.Context, n service.InvitationNotice) error {
	if n.Email == "" {
		return errors.New("mail: guest has no email address")
	}
	msg, err := m.buildMessage(n)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", n.Email, err)
	}
	m.log.Info().Str("guest_id", n.GuestID).Dur("took", time.Since(start)).Msg("invitation sent")
	return nil
}

func (m *Mailer) buildMessage(n service.InvitationNotice) (*gomail.Msg, error) {
	html, err := renderInvitation(n)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := msg.To(n.Email); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	msg.Subject(Subject(n.EventTitle))
	msg.SetBodyString(gomail.TypeTextHTML, html)
	msg.AddAlternativeString(gomail.TypeTextPlain, plainInvitation(n))
	if len(n.QRPNG) > 0 {
		if err := msg.EmbedReader(QRFileName, bytes.NewReader(n.QRPNG)); err != nil {
			return nil, fmt.Errorf("mail: embed qr: %w", err)
		}
	}
	return msg, nil
}

// Subject is the invitation subject line.
func Subject(eventTitle string) string {
	return eventTitle + " - Your Invitation QR Code"
}

func renderInvitation(n service.InvitationNotice) (string, error) {
	var buf bytes.Buffer
	if err := invitationTmpl.Execute(&buf, newView(n)); err != nil {
		return "", fmt.Errorf("mail: render: %w", err)
	}
	return buf.String(), nil
}

// plainInvitation is the text/plain alternative for clients that block
// HTML.  It carries the token so the guest can still be found at the door.
func plainInvitation(n service.InvitationNotice) string {
	v := newView(n)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nDear %s,\n\n", v.EventTitle, v.GuestName)
	b.WriteString("Thank you for confirming your attendance. Please present the attached QR code at the event entrance for verification.\n\n")
	if v.When != "" {
		fmt.Fprintf(&b, "When: %s\n", v.When)
	}
	if v.Venue != "" {
		fmt.Fprintf(&b, "Where: %s\n", v.Venue)
	}
	if n.Token != "" {
		fmt.Fprintf(&b, "Invitation code: %s\n", n.Token)
	}
	b.WriteString("\nIf you have any questions, please reach out.\n\nThis email was sent from DigiVite.\n")
	return b.String()
}

func newView(n service.InvitationNotice) invitationView {
	v := invitationView{
		EventTitle: n.EventTitle,
		GuestName:  n.GuestName,
		Venue:      n.Venue,
		CID:        QRFileName,
	}
	if v.EventTitle == "" {
		v.EventTitle = "The Event"
	}
	if v.GuestName == "" {
		v.GuestName = "Guest"
	}
	if !n.EventDate.IsZero() {
		v.When = n.EventDate.Format("Monday, 2 January 2006 at 15:04")
	}
	return v
}
