// Package ledger implements the access-gated ticketing ledger: the
// authoritative state about who may attend or decrypt an event, the
// per-attendee tickets proving enrollment and payment, the authorization gate
// queried by the key-release service, and the resale marketplace.
//
// The ledger is an arena of keyed aggregates behind a single mutex. Every
// operation applies as one serialized step: it either completes fully,
// appending exactly one notification to the stream, or rejects with a
// status sentinel and no visible change. Enrollment (AccessPolicy
// participants) and ticket possession are two independent aggregates with no
// enforced cross-reference; keeping them consistent is the calling layer's
// job. This is a known consistency gap carried over deliberately, since
// callers rely on the split (allowlisting without minting, minting without
// enrollment).
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ticket-ledger/internal/treasury"
	"ticket-ledger/models"
)

// Options tunes ledger behavior.
type Options struct {
	// RequireHolderBurn makes Burn verify the caller against the ticket
	// holder. When false, burn is a trusted-caller-only primitive with no
	// authorization check, matching the original contract.
	RequireHolderBurn bool

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time

	// Validator checks submitted attendance proofs. Nil means any non-empty
	// proof is accepted.
	Validator ProofValidator

	// NotifyBuffer is the capacity of the notification fan-out channel.
	// Zero means 256.
	NotifyBuffer int
}

// Ledger holds all ledger state. Safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	policies map[string]*AccessPolicy // event id -> policy
	tickets  map[string]*Ticket       // ticket id -> ticket
	listings map[string]*Listing      // ticket id -> active listing

	attendance      map[string]*AttendanceRecord // record id -> record
	ticketsByEvent  map[string][]string
	ticketsByHolder map[string][]string

	log []models.Notification
	seq uint64

	notifyCh chan models.Notification

	treasury  treasury.Provider
	validator ProofValidator
	now       func() time.Time
	opts      Options
}

// New creates an empty ledger backed by the given value-transfer provider.
func New(provider treasury.Provider, opts Options) *Ledger {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	validator := opts.Validator
	if validator == nil {
		validator = AcceptAllValidator{}
	}
	buffer := opts.NotifyBuffer
	if buffer == 0 {
		buffer = 256
	}

	return &Ledger{
		policies:        make(map[string]*AccessPolicy),
		tickets:         make(map[string]*Ticket),
		listings:        make(map[string]*Listing),
		attendance:      make(map[string]*AttendanceRecord),
		ticketsByEvent:  make(map[string][]string),
		ticketsByHolder: make(map[string][]string),
		notifyCh:        make(chan models.Notification, buffer),
		treasury:        provider,
		validator:       validator,
		now:             now,
		opts:            opts,
	}
}

// Notifications returns the fan-out channel. Consumers receive one record per
// successful state-changing operation, in commit order. Slow consumers drop
// records from the channel, never from the in-ledger log.
func (l *Ledger) Notifications() <-chan models.Notification {
	return l.notifyCh
}

// Log returns a copy of the notification records with Seq > after, in order.
func (l *Ledger) Log(after uint64) []models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Notification, 0)
	for _, n := range l.log {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out
}

// emit appends a notification under the ledger mutex. The append is part of
// the enclosing operation; the channel send is best-effort fan-out.
func (l *Ledger) emit(kind, eventID, principal, ticketID string, amount int64) {
	l.seq++
	n := models.Notification{
		Seq:       l.seq,
		Kind:      kind,
		EventID:   eventID,
		Principal: principal,
		TicketID:  ticketID,
		Amount:    amount,
		At:        l.now(),
	}
	l.log = append(l.log, n)

	select {
	case l.notifyCh <- n:
	default:
	}
}

// Treasury returns the value-transfer provider the ledger settles through.
func (l *Ledger) Treasury() treasury.Provider { return l.treasury }

func (l *Ledger) transfer(ctx context.Context, payer, payee string, amount int64) error {
	return l.treasury.Transfer(ctx, payer, payee, decimalFromUnits(amount))
}

// decimalFromUnits converts an integer amount in smallest currency units to
// the treasury boundary type.
func decimalFromUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
