package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/digivite/digivite/internal/service"
)

func TestRenderInvitation(t *testing.T) {
	html, err := renderInvitation(service.InvitationNotice{
		GuestName:  "Jane <Doe>",
		EventTitle: "Jane & John",
		EventDate:  time.Date(2026, 6, 20, 17, 0, 0, 0, time.UTC),
		Venue:      "Rose Hall",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Dear Jane &lt;Doe&gt;", "Jane &amp; John", "Saturday, 20 June 2026 at 17:00", "Rose Hall", "cid:" + QRFileName} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered body missing %q", want)
		}
	}
}

func TestRenderInvitationDefaults(t *testing.T) {
	html, err := renderInvitation(service.InvitationNotice{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Dear Guest,") || strings.Contains(html, "When:") {
		t.Fatalf("unexpected defaults:\n%s", html)
	}
}

func TestPlainInvitation(t *testing.T) {
	txt := plainInvitation(service.InvitationNotice{GuestName: "Jane", EventTitle: "Gala", Token: "q_abc"})
	for _, want := range []string{"Gala\n", "Dear Jane,", "Invitation code: q_abc", "sent from DigiVite"} {
		if !strings.Contains(txt, want) {
			t.Errorf("plain body missing %q", want)
		}
	}
}

func TestInvitationIssuedSendsMessage(t *testing.T) {
	var sent *gomail.Msg
	m := newMailer("events@example.com", func(_ context.Context, msg *gomail.Msg) error {
		sent = msg
		return nil
	}, zerolog.Nop())

	err := m.InvitationIssued(context.Background(), service.InvitationNotice{
		GuestID: "g1", GuestName: "Jane", Email: "jane@example.com",
		EventTitle: "Gala", QRPNG: []byte{0x89, 'P', 'N', 'G'},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sent == nil {
		t.Fatal("nothing sent")
	}
	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Gala - Your Invitation QR Code", "jane@example.com", QRFileName} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestInvitationIssuedErrors(t *testing.T) {
	m := newMailer("events@example.com", func(context.Context, *gomail.Msg) error {
		return errors.New("421 try again later")
	}, zerolog.Nop())

	if err := m.InvitationIssued(context.Background(), service.InvitationNotice{}); err == nil {
		t.Fatal("expected error for missing address")
	}
	if err := m.InvitationIssued(context.Background(), service.InvitationNotice{Email: "a@b.co"}); err == nil || !strings.Contains(err.Error(), "421") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
