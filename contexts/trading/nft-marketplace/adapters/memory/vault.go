package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
)

var (
	ErrInsufficientFunds = errors.New("insufficient account funds")
	ErrPayoutRejected    = errors.New("recipient rejects payouts")
	ErrEscrowUnderflow   = errors.New("escrow balance underflow")
)

// Vault is the in-memory native-value custodian. Sale payments move from the
// buyer's account into marketplace escrow; withdrawals move escrow back to
// seller accounts. Escrow never drops below the sum of withdrawable
// earnings, because only captured payments fund it.
type Vault struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	escrow   decimal.Decimal
	rejected map[string]bool
	logger   *slog.Logger
}

func NewVault(logger *slog.Logger) *Vault {
	return &Vault{
		balances: make(map[string]decimal.Decimal),
		rejected: make(map[string]bool),
		logger:   application.ResolveLogger(logger),
	}
}

// Deposit funds an account. Dev runtime and test seeding only.
func (v *Vault) Deposit(_ context.Context, account string, amount decimal.Decimal) error {
	account = entities.NormalizeAddress(account)
	if account == "" || !amount.IsPositive() {
		return ErrInsufficientFunds
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[account] = v.balances[account].Add(amount)
	return nil
}

// SetPayoutRejected marks an account as refusing incoming payouts, the way a
// contract recipient can revert on receive.
func (v *Vault) SetPayoutRejected(account string, rejected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rejected[entities.NormalizeAddress(account)] = rejected
}

func (v *Vault) CapturePayment(_ context.Context, buyer string, amount decimal.Decimal) error {
	buyer = entities.NormalizeAddress(buyer)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.balances[buyer].LessThan(amount) {
		return ErrInsufficientFunds
	}
	v.balances[buyer] = v.balances[buyer].Sub(amount)
	v.escrow = v.escrow.Add(amount)

	v.logger.Info("payment captured into escrow",
		"event", "vault_payment_captured",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"buyer", buyer,
		"amount", amount.String(),
	)
	return nil
}

func (v *Vault) PayOut(_ context.Context, recipient string, amount decimal.Decimal) error {
	recipient = entities.NormalizeAddress(recipient)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rejected[recipient] {
		return ErrPayoutRejected
	}
	if v.escrow.LessThan(amount) {
		return ErrEscrowUnderflow
	}
	v.escrow = v.escrow.Sub(amount)
	v.balances[recipient] = v.balances[recipient].Add(amount)

	v.logger.Info("escrow paid out",
		"event", "vault_paid_out",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"recipient", recipient,
		"amount", amount.String(),
	)
	return nil
}

// Balance exposes an account balance for dev endpoints and tests.
func (v *Vault) Balance(account string) decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[entities.NormalizeAddress(account)]
}

// EscrowBalance exposes the marketplace escrow total.
func (v *Vault) EscrowBalance() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.escrow
}
