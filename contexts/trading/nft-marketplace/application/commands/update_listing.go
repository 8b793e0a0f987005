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

type UpdateListingCommand struct {
	Collection string
	TokenID    string
	NewPrice   decimal.Decimal
	Caller     string
}

type UpdateListingResult struct {
	Listing entities.Listing
}

type UpdateListingUseCase struct {
	Listings    ports.ListingRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute replaces the stored price of an existing listing. An update is
// modeled as re-listing: the same ItemListed event is emitted with the new
// price. The creation price floor applies to updates too.
func (u UpdateListingUseCase) Execute(ctx context.Context, cmd UpdateListingCommand) (UpdateListingResult, error) {
	logger := application.ResolveLogger(u.Logger)
	key := entities.TokenKey{
		Collection: entities.NormalizeAddress(cmd.Collection),
		TokenID:    strings.TrimSpace(cmd.TokenID),
	}
	caller := entities.NormalizeAddress(cmd.Caller)
	if key.Collection == "" || key.TokenID == "" || caller == "" {
		return UpdateListingResult{}, domainerrors.ErrInvalidRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return UpdateListingResult{}, err
	}
	if listing.Seller != caller {
		return UpdateListingResult{}, domainerrors.ErrNotOwner
	}
	if err := entities.ValidatePrice(cmd.NewPrice); err != nil {
		return UpdateListingResult{}, err
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return UpdateListingResult{}, err
	}
	event := ports.ItemListedEvent{
		EventID:      eventID,
		Seller:       listing.Seller,
		Collection:   key.Collection,
		TokenID:      key.TokenID,
		Price:        cmd.NewPrice,
		PartitionKey: partitionKey(key),
		OccurredAt:   now,
	}

	if err := u.Listings.UpdateListingPrice(ctx, key, cmd.NewPrice, now, event); err != nil {
		logger.Error("update listing failed on write transaction",
			"event", "update_listing_write_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"collection", key.Collection,
			"token_id", key.TokenID,
			"error", err.Error(),
		)
		return UpdateListingResult{}, err
	}

	listing.Price = cmd.NewPrice
	listing.UpdatedAt = now

	logger.Info("listing price updated",
		"event", "marketplace_listing_updated",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"collection", key.Collection,
		"token_id", key.TokenID,
		"seller", listing.Seller,
		"price", cmd.NewPrice.String(),
	)

	return UpdateListingResult{Listing: listing}, nil
}

func (u UpdateListingUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
