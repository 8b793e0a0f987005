package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type ListItemCommand struct {
	Collection string
	TokenID    string
	Price      decimal.Decimal
	Caller     string
}

type ListItemResult struct {
	Listing entities.Listing
}

type ListItemUseCase struct {
	Listings    ports.ListingRepository
	Registry    ports.AssetRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute creates a listing. Precondition order matters and is observable
// through error kinds: price floor, then already-listed, then ownership,
// then marketplace approval.
func (u ListItemUseCase) Execute(ctx context.Context, cmd ListItemCommand) (ListItemResult, error) {
	logger := application.ResolveLogger(u.Logger)
	now := u.now()

	listing, err := entities.NewListing(cmd.Collection, cmd.TokenID, cmd.Caller, cmd.Price, now)
	if err != nil {
		return ListItemResult{}, err
	}

	logger.Info("list item started",
		"event", "list_item_started",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"collection", listing.Collection,
		"token_id", listing.TokenID,
		"seller", listing.Seller,
	)

	if _, err := u.Listings.GetListing(ctx, listing.Key()); err == nil {
		return ListItemResult{}, domainerrors.ErrAlreadyListed
	} else if !isNotListed(err) {
		return ListItemResult{}, err
	}

	owner, err := u.Registry.OwnerOf(ctx, listing.Collection, listing.TokenID)
	if err != nil {
		logger.Error("list item failed resolving asset owner",
			"event", "list_item_owner_lookup_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"collection", listing.Collection,
			"token_id", listing.TokenID,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}
	if entities.NormalizeAddress(owner) != listing.Seller {
		return ListItemResult{}, domainerrors.ErrNotOwner
	}

	approved, err := u.Registry.IsApprovedForMarketplace(ctx, listing.Collection, listing.TokenID)
	if err != nil {
		return ListItemResult{}, err
	}
	if !approved {
		return ListItemResult{}, domainerrors.ErrNotApprovedForMarketplace
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ListItemResult{}, err
	}
	event := ports.ItemListedEvent{
		EventID:      eventID,
		Seller:       listing.Seller,
		Collection:   listing.Collection,
		TokenID:      listing.TokenID,
		Price:        listing.Price,
		PartitionKey: partitionKey(listing.Key()),
		OccurredAt:   now,
	}

	if err := u.Listings.CreateListing(ctx, listing, event); err != nil {
		logger.Error("list item failed on write transaction",
			"event", "list_item_write_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"collection", listing.Collection,
			"token_id", listing.TokenID,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}

	logger.Info("item listed",
		"event", "marketplace_item_listed",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"collection", listing.Collection,
		"token_id", listing.TokenID,
		"seller", listing.Seller,
		"price", listing.Price.String(),
	)

	return ListItemResult{Listing: listing}, nil
}

func (u ListItemUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func isNotListed(err error) bool {
	return errors.Is(err, domainerrors.ErrNotListed)
}

func partitionKey(key entities.TokenKey) string {
	return fmt.Sprintf("%s:%s", key.Collection, key.TokenID)
}
