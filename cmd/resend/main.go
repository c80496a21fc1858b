// Command resend delivers the QR invitation again to guests who already
// accepted, for instance after the SMTP relay rejected a batch.
//
//	resend -event summer-gala -dry-run
//	resend -email jane@example.com -email "Max Power" -delay 10s
//	resend -batch-size 20 -batch-pause 1m
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/digivite/digivite/internal/config"
	"github.com/digivite/digivite/internal/database"
	"github.com/digivite/digivite/internal/logging"
	"github.com/digivite/digivite/internal/mail"
	"github.com/digivite/digivite/internal/repository/memory"
	"github.com/digivite/digivite/internal/repository/mysql"
	"github.com/digivite/digivite/internal/service"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		eventRef = flag.String("event", "", "event id, slug or title (default: all events)")
		dryRun   = flag.Bool("dry-run", false, "list recipients without sending")
		delay    = flag.Duration("delay", 5*time.Second, "pause between emails")
		batch    = flag.Int("batch-size", 0, "emails per batch, 0 sends everything as one batch")
		pause    = flag.Duration("batch-pause", time.Minute, "pause between batches")
		wait     = flag.Duration("wait", 5*time.Second, "grace period to abort before sending")
		only     listFlag
	)
	flag.Var(&only, "email", "only resend to this email address or guest name (repeatable)")
	flag.Parse()

	cfg := config.LoadTool()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo service.Repository
	if cfg.StoreDriver == config.StoreMemory {
		repo = memory.New()
	} else {
		db, err := database.Open(database.Options{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName})
		if err != nil {
			log.Error().Err(err).Msg("open database")
			return 1
		}
		defer db.Close()
		repo = mysql.New(db)
	}

	var notifier service.Notifier = service.NopNotifier{}
	if !*dryRun {
		m, err := mail.NewMailer(cfg.Mail, log)
		if err != nil {
			log.Error().Err(err).Msg("mailer")
			return 1
		}
		notifier = m
	}
	resender := service.NewResender(repo, notifier, log)

	preview, err := resender.Run(ctx, service.ResendOptions{EventRef: *eventRef, Only: only, DryRun: true})
	if err != nil {
		log.Error().Err(err).Msg("load recipients")
		return 1
	}
	printRecipients(preview)
	if *dryRun || len(preview.Recipients) == 0 {
		return 0
	}

	fmt.Printf("\nSending %d invitations in %s, press Ctrl+C to abort.\n", len(preview.Recipients), *wait)
	select {
	case <-ctx.Done():
		fmt.Println("aborted")
		return 1
	case <-time.After(*wait):
	}

	rep, err := resender.Run(ctx, service.ResendOptions{
		EventRef:   *eventRef,
		Only:       only,
		Delay:      *delay,
		BatchSize:  *batch,
		BatchPause: *pause,
	})
	printSummary(rep)
	if err != nil {
		log.Error().Err(err).Msg("resend interrupted")
	}
	if err != nil || len(rep.Failed) > 0 {
		return 1
	}
	return 0
}

func printRecipients(rep service.ResendReport) {
	fmt.Printf("%d recipients\n", len(rep.Recipients))
	for i, g := range rep.Recipients {
		fmt.Printf("  %d. %s <%s>\n", i+1, g.FullName, *g.Email)
	}
	if len(rep.Unmatched) > 0 {
		fmt.Println("not found:")
		for _, u := range rep.Unmatched {
			fmt.Printf("  - %s\n", u)
		}
	}
}

func printSummary(rep service.ResendReport) {
	fmt.Printf("\nsent: %d  failed: %d  total: %d\n", rep.Sent, len(rep.Failed), len(rep.Recipients))
	for _, f := range rep.Failed {
		fmt.Printf("  - %s <%s>: %v\n", f.Name, f.Email, f.Err)
	}
}
