// Package currency defines the value-custody collaborator. The accounting
// engine never holds funds itself; it asks the provider to capture inbound
// payments and release outbound refunds and reward claims.
package currency

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var (
	ErrInvalidAmount     = errors.New("currency_invalid_amount")
	ErrInsufficientFunds = errors.New("currency_insufficient_funds")
)

// Provider moves value on behalf of the ledger.
//
// Capture pulls amount from payer and returns the value actually received,
// which may be lower than requested for fee-on-transfer currencies. Callers
// must account in terms of the returned amount, never the requested one.
type Provider interface {
	Capture(ctx context.Context, payer snowflake.ID, amount int64) (int64, error)
	TransferOut(ctx context.Context, recipient snowflake.ID, amount int64) error
}

// Module provides the in-memory book as the default provider. Deployments
// with a real custody backend decorate or replace this.
var Module = fx.Module("currency",
	fx.Provide(func() Provider { return NewMemoryProvider() }),
)
