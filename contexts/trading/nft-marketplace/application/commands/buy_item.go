package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type BuyItemCommand struct {
	Collection string
	TokenID    string
	Caller     string
	PaidAmount decimal.Decimal
}

type BuyItemResult struct {
	Sale entities.Sale
}

type BuyItemUseCase struct {
	Listings    ports.ListingRepository
	Registry    ports.AssetRegistry
	Vault       ports.ValueVault
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute settles a purchase. The repository applies every internal state
// mutation (listing deletion, earnings credit, outbox row) before the settle
// callback captures payment and moves the asset. The asset transfer may call
// back into the marketplace; by then the listing is already gone, so a
// reentrant purchase of the same asset fails with ErrNotListed. A settle
// failure rolls the whole sale back.
func (u BuyItemUseCase) Execute(ctx context.Context, cmd BuyItemCommand) (BuyItemResult, error) {
	logger := application.ResolveLogger(u.Logger)
	key := entities.TokenKey{
		Collection: entities.NormalizeAddress(cmd.Collection),
		TokenID:    strings.TrimSpace(cmd.TokenID),
	}
	buyer := entities.NormalizeAddress(cmd.Caller)
	if key.Collection == "" || key.TokenID == "" || buyer == "" {
		return BuyItemResult{}, domainerrors.ErrInvalidRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return BuyItemResult{}, err
	}
	if cmd.PaidAmount.LessThan(listing.Price) {
		return BuyItemResult{}, domainerrors.ErrPriceNotMet
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return BuyItemResult{}, err
	}

	sale := entities.Sale{
		Collection: key.Collection,
		TokenID:    key.TokenID,
		Seller:     listing.Seller,
		Buyer:      buyer,
		Price:      listing.Price,
		PaidAmount: cmd.PaidAmount,
		OccurredAt: now,
	}
	event := ports.ItemBoughtEvent{
		EventID:      eventID,
		Buyer:        buyer,
		Seller:       listing.Seller,
		Collection:   key.Collection,
		TokenID:      key.TokenID,
		Price:        listing.Price,
		PartitionKey: partitionKey(key),
		OccurredAt:   now,
	}

	err = u.Listings.CompleteSale(ctx, sale, event, func(settleCtx context.Context) error {
		if err := u.Vault.CapturePayment(settleCtx, sale.Buyer, sale.PaidAmount); err != nil {
			return err
		}
		return u.Registry.Transfer(settleCtx, sale.Seller, sale.Buyer, sale.Collection, sale.TokenID)
	})
	if err != nil {
		logger.Error("buy item failed",
			"event", "buy_item_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"collection", key.Collection,
			"token_id", key.TokenID,
			"buyer", buyer,
			"error", err.Error(),
		)
		return BuyItemResult{}, err
	}

	logger.Info("item bought",
		"event", "marketplace_item_bought",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"collection", key.Collection,
		"token_id", key.TokenID,
		"buyer", buyer,
		"seller", sale.Seller,
		"price", sale.Price.String(),
	)

	return BuyItemResult{Sale: sale}, nil
}

func (u BuyItemUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
