// Package treasury provides the value-transfer primitive the ledger delegates
// to. The ledger never implements currency itself: mint-paid and buy call
// Transfer synchronously and treat any provider error as a full rejection of
// the enclosing operation.
package treasury

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProviderKind identifies a value-transfer backend.
type ProviderKind string

const (
	// ProviderMemory keeps balances in process. Used in development and
	// tests, and as the settlement ledger behind the custody provider.
	ProviderMemory ProviderKind = "memory"

	// ProviderCustody settles through an external fund-custody service and
	// receives confirmations over a PubNub channel.
	ProviderCustody ProviderKind = "custody"
)

// Transaction is a settlement confirmation reported by an external custody
// service.
type Transaction struct {
	RefID     string          `json:"ref_id"`
	Payer     string          `json:"payer"`
	Payee     string          `json:"payee"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp int64           `json:"timestamp"`
}

// Provider is the common interface for value-transfer backends.
type Provider interface {
	// Kind returns the provider kind.
	Kind() ProviderKind

	// Transfer moves amount from payer to payee. It either moves the full
	// amount or returns an error having moved nothing.
	Transfer(ctx context.Context, payer, payee string, amount decimal.Decimal) error

	// Balance returns the current balance of a principal.
	Balance(ctx context.Context, principal string) (decimal.Decimal, error)

	// SetTransactionChannel sets the channel for settlement confirmations.
	// Providers without asynchronous settlement ignore it.
	SetTransactionChannel(ch chan *Transaction)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}

// New creates a provider for the given kind.
func New(ctx context.Context, kind ProviderKind, cfg any) (Provider, error) {
	switch kind {
	case ProviderMemory:
		return NewMemory(), nil
	case ProviderCustody:
		custodyCfg, ok := cfg.(*CustodyConfig)
		if !ok {
			return nil, fmt.Errorf("treasury: custody provider requires *CustodyConfig, got %T", cfg)
		}
		return NewCustody(ctx, custodyCfg)
	default:
		return nil, fmt.Errorf("treasury: unsupported provider kind %q", kind)
	}
}
