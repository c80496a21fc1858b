package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/digivite/digivite/internal/service"
)

// Publisher hands invitation notices to RabbitMQ.  It implements
// service.Notifier; a connection is opened per publish, which is plenty for
// RSVP traffic.
type Publisher struct {
    url   string
    queue string
    log   zerolog.Logger
    now   func() time.Time
}

var _ service.Notifier = (*Publisher)(nil)

// NewPublisher returns a publisher for the given broker URL and queue.
func NewPublisher(url, queue string, log zerolog.Logger) *Publisher {
    if queue == "" {
        queue = DefaultQueueName
    }
    return &Publisher{
        url:   url,
        queue: queue,
        log:   log.With().Str("component", "invitation-publisher").Logger(),
        now:   time.Now,
    }
}

// InvitationIssued publishes n as a persistent message.  Errors are logged
// and returned so the caller can decide to ignore them.
func (p *Publisher) InvitationIssued(ctx context.Context, n service.InvitationNotice) error {
    body, err := json.Marshal(NewInvitationIssuedEvent(n, p.now()))
    if err != nil {
        p.log.Error().Err(err).Msg("marshal event failed")
        return err
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Error().Err(err).Msg("dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Error().Err(err).Msg("channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declare(ch, p.queue); err != nil {
        p.log.Error().Err(err).Msg("queue declare failed")
        return err
    }

    pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    p.now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(pctx, "", p.queue, false, false, pub); err != nil {
        p.log.Error().Err(err).Msg("publish failed")
        return err
    }
    p.log.Debug().Str("guest_id", n.GuestID).Msg("invitation queued")
    return nil
}

// declare makes sure the durable queue exists.  Safe to repeat.
func declare(ch *amqp.Channel, name string) error {
    _, err := ch.QueueDeclare(name, true, false, false, false, nil)
    return err
}
