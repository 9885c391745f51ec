package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// AuditConsumer drains the change queue and appends one line per message
// to an audit log file.
type AuditConsumer struct {
    URL     string
    Queue   string
    LogPath string
    Log     *zap.Logger
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Broker failures are retried with exponential
// backoff capped at 30s.  Messages that cannot be handled are rejected
// without requeue so a poison message cannot stall the loop.
func (a *AuditConsumer) Run(ctx context.Context) error {
    log := a.Log
    if log == nil {
        log = zap.NewNop()
    }
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = a.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        return fmt.Errorf("set qos: %w", err)
    }
    if _, err := ch.QueueDeclare(a.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, a.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := a.HandleMessage(d.Body); err != nil {
            if a.Log != nil {
                a.Log.Error("audit consumer: handle message failed", zap.Error(err))
            }
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// HandleMessage decodes one EventChanged body and appends it to LogPath.
func (a *AuditConsumer) HandleMessage(body []byte) error {
    var ev EventChanged
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    path := a.LogPath
    if path == "" {
        path = filepath.Join("logs", "events.log")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders a change as a single human-friendly line.
func FormatAuditLine(ev EventChanged) string {
    ids := make([]string, 0, len(ev.EventIDs))
    for _, id := range ev.EventIDs {
        ids = append(ids, fmt.Sprint(id))
    }
    names := make([]string, 0, len(ev.Events))
    activity := int64(0)
    for _, e := range ev.Events {
        names = append(names, e.Name)
        activity = e.Activity
    }
    return fmt.Sprintf("[%s] %s | ids=[%s] | activity=%d | names=%q\n",
        ev.OccurredAt, ev.Kind, strings.Join(ids, ","), activity, strings.Join(names, "; "))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
