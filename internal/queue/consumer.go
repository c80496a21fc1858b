package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/digivite/digivite/internal/service"
)

// StartInvitationConsumer consumes the invitation queue and passes every
// notice to deliver (normally the SMTP mailer).  It reconnects with
// exponential backoff and returns only when ctx is cancelled.
func StartInvitationConsumer(ctx context.Context, url, queue string, deliver service.Notifier, log zerolog.Logger) error {
    if queue == "" {
        queue = DefaultQueueName
    }
    log = log.With().Str("component", "invitation-consumer").Str("queue", queue).Logger()

    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, queue, deliver, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, deliver service.Notifier, log zerolog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // mail is slow; keep the prefetch small
    if err := ch.Qos(5, 0, false); err != nil {
        log.Warn().Err(err).Msg("set QoS failed")
    }
    if err := declare(ch, queue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    log.Info().Msg("consuming")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(ctx, d.Body, deliver); err != nil {
                log.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false) // no requeue, avoids tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(ctx context.Context, body []byte, deliver service.Notifier) error {
    var ev InvitationIssuedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    n, err := ev.Notice()
    if err != nil {
        return fmt.Errorf("guest %s: %w", ev.GuestID, err)
    }
    dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
    defer cancel()
    if err := deliver.InvitationIssued(dctx, n); err != nil {
        return fmt.Errorf("deliver to guest %s: %w", ev.GuestID, err)
    }
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
