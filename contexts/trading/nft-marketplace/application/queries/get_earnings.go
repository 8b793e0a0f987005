package queries

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type GetEarningsQuery struct {
	Seller string
}

type GetEarningsResult struct {
	Seller string
	Amount decimal.Decimal
}

type GetEarningsUseCase struct {
	Earnings ports.EarningsLedger
	Logger   *slog.Logger
}

// Execute returns the seller's withdrawable balance; sellers that never sold
// anything have a zero balance, not an error.
func (u GetEarningsUseCase) Execute(ctx context.Context, query GetEarningsQuery) (GetEarningsResult, error) {
	seller := entities.NormalizeAddress(query.Seller)
	if seller == "" {
		return GetEarningsResult{}, domainerrors.ErrInvalidRequest
	}

	amount, err := u.Earnings.GetEarnings(ctx, seller)
	if err != nil {
		return GetEarningsResult{}, err
	}
	return GetEarningsResult{Seller: seller, Amount: amount}, nil
}
