package currency

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// MemoryProvider is a process-local balance book so the service runs
// end-to-end without an external custody backend.
type MemoryProvider struct {
	mu       sync.Mutex
	balances map[snowflake.ID]int64
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{balances: make(map[snowflake.ID]int64)}
}

// Deposit credits an account, for dev seeding and tests.
func (p *MemoryProvider) Deposit(account snowflake.ID, amount int64) {
	if amount <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[account] += amount
}

// BalanceOf reads the current balance of an account.
func (p *MemoryProvider) BalanceOf(account snowflake.ID) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[account]
}

func (p *MemoryProvider) Capture(_ context.Context, payer snowflake.ID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if amount == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[payer] < amount {
		return 0, ErrInsufficientFunds
	}
	p.balances[payer] -= amount
	return amount, nil
}

func (p *MemoryProvider) TransferOut(_ context.Context, recipient snowflake.ID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[recipient] += amount
	return nil
}
