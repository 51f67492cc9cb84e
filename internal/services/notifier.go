package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"ticket-ledger/models"
)

// Notifier drains the ledger's notification stream and fans it out to the
// notifications collection, the Redis stream and the realtime PubNub channel.
// Delivery is best-effort: the ledger's own log is the source of truth, so a
// failed publish is logged and skipped, never retried against the ledger.
type Notifier struct {
	app     core.App
	redis   *redis.Client
	pubnub  *pubnub.PubNub
	stream  string
	maxLen  int64
	channel string
}

func NewNotifier(app core.App, redisClient *redis.Client, pn *pubnub.PubNub, stream string, maxLen int64, channel string) *Notifier {
	return &Notifier{
		app:     app,
		redis:   redisClient,
		pubnub:  pn,
		stream:  stream,
		maxLen:  maxLen,
		channel: channel,
	}
}

// Run consumes notifications until the channel closes or ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, notifications <-chan models.Notification) {
	for {
		select {
		case note, ok := <-notifications:
			if !ok {
				return
			}
			n.Publish(ctx, note)

		case <-ctx.Done():
			return
		}
	}
}

// Publish writes one notification to the Redis stream and the PubNub
// channel.
func (n *Notifier) Publish(ctx context.Context, note models.Notification) {
	if n.app != nil {
		n.persist(note)
	}

	if n.redis != nil {
		if err := n.redis.XAdd(ctx, &redis.XAddArgs{
			Stream: n.stream,
			MaxLen: n.maxLen,
			Approx: true,
			Values: streamValues(note),
		}).Err(); err != nil {
			slog.Error("notifier: stream append failed", "kind", note.Kind, "seq", note.Seq, "error", err)
		}
	}

	if n.pubnub != nil {
		_, _, err := n.pubnub.Publish().
			Channel(n.channel).
			Message(map[string]any{
				"seq":       note.Seq,
				"kind":      note.Kind,
				"event_id":  note.EventID,
				"principal": note.Principal,
				"ticket_id": note.TicketID,
				"amount":    note.Amount,
				"at":        note.At.Unix(),
			}).
			Execute()
		if err != nil {
			slog.Error("notifier: pubnub publish failed", "kind", note.Kind, "seq", note.Seq, "error", err)
		}
	}
}

// persist appends the notification to the notifications collection.
func (n *Notifier) persist(note models.Notification) {
	collection, err := n.app.FindCollectionByNameOrId("notifications")
	if err != nil {
		slog.Error("notifier: missing collection", "error", err)
		return
	}

	record := core.NewRecord(collection)
	record.Set("seq", note.Seq)
	record.Set("kind", note.Kind)
	record.Set("event_id", note.EventID)
	record.Set("principal", note.Principal)
	record.Set("ticket_id", note.TicketID)
	record.Set("amount", note.Amount)
	record.Set("at", note.At.Format(time.RFC3339))

	if err := n.app.Save(record); err != nil {
		slog.Error("notifier: persist failed", "kind", note.Kind, "seq", note.Seq, "error", err)
	}
}

// streamValues flattens a notification into an ordered field list so stream
// entries always carry the same field layout.
func streamValues(note models.Notification) []any {
	return []any{
		"seq", strconv.FormatUint(note.Seq, 10),
		"kind", note.Kind,
		"event_id", note.EventID,
		"principal", note.Principal,
		"ticket_id", note.TicketID,
		"amount", strconv.FormatInt(note.Amount, 10),
		"at", strconv.FormatInt(note.At.Unix(), 10),
	}
}
