package commands

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type WithdrawEarningsCommand struct {
	Caller string
}

type WithdrawEarningsResult struct {
	Amount decimal.Decimal
}

type WithdrawEarningsUseCase struct {
	Earnings ports.EarningsLedger
	Vault    ports.ValueVault
	Logger   *slog.Logger
}

// Execute pays out the caller's full accumulated balance. The ledger zeroes
// the balance before the payout runs; a payout failure restores it and the
// whole call fails with ErrTransferFailed.
func (u WithdrawEarningsUseCase) Execute(ctx context.Context, cmd WithdrawEarningsCommand) (WithdrawEarningsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	caller := entities.NormalizeAddress(cmd.Caller)
	if caller == "" {
		return WithdrawEarningsResult{}, domainerrors.ErrInvalidRequest
	}

	amount, err := u.Earnings.WithdrawAll(ctx, caller, func(payoutCtx context.Context, amount decimal.Decimal) error {
		return u.Vault.PayOut(payoutCtx, caller, amount)
	})
	if err != nil {
		logger.Warn("withdraw earnings failed",
			"event", "withdraw_earnings_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"seller", caller,
			"error", err.Error(),
		)
		return WithdrawEarningsResult{}, err
	}

	logger.Info("earnings withdrawn",
		"event", "marketplace_earnings_withdrawn",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"seller", caller,
		"amount", amount.String(),
	)
	return WithdrawEarningsResult{Amount: amount}, nil
}
