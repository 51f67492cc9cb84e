package treasury

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Memory is an in-process balance ledger. Transfers are atomic under a single
// mutex: either the full amount moves or nothing does.
type Memory struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]decimal.Decimal)}
}

func (m *Memory) Kind() ProviderKind { return ProviderMemory }

// Deposit credits a principal. Used to fund accounts in development and tests.
func (m *Memory) Deposit(principal string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[principal] = m.balances[principal].Add(amount)
}

func (m *Memory) Transfer(ctx context.Context, payer, payee string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("treasury: negative transfer amount %s", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	have := m.balances[payer]
	if have.LessThan(amount) {
		return fmt.Errorf("treasury: %s has %s, needs %s", payer, have, amount)
	}
	m.balances[payer] = have.Sub(amount)
	m.balances[payee] = m.balances[payee].Add(amount)
	return nil
}

func (m *Memory) Balance(ctx context.Context, principal string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[principal], nil
}

func (m *Memory) SetTransactionChannel(ch chan *Transaction) {}

func (m *Memory) Close(ctx context.Context) error { return nil }
