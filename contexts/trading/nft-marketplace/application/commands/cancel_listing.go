package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type CancelListingCommand struct {
	Collection string
	TokenID    string
	Caller     string
}

type CancelListingUseCase struct {
	Listings    ports.ListingRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute deletes a listing on the seller's request.
func (u CancelListingUseCase) Execute(ctx context.Context, cmd CancelListingCommand) error {
	logger := application.ResolveLogger(u.Logger)
	key := entities.TokenKey{
		Collection: entities.NormalizeAddress(cmd.Collection),
		TokenID:    strings.TrimSpace(cmd.TokenID),
	}
	caller := entities.NormalizeAddress(cmd.Caller)
	if key.Collection == "" || key.TokenID == "" || caller == "" {
		return domainerrors.ErrInvalidRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		return err
	}
	if listing.Seller != caller {
		return domainerrors.ErrNotOwner
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	event := ports.ItemCanceledEvent{
		EventID:      eventID,
		Seller:       listing.Seller,
		Collection:   key.Collection,
		TokenID:      key.TokenID,
		Reason:       ports.CancelReasonSeller,
		PartitionKey: partitionKey(key),
		OccurredAt:   now,
	}

	if err := u.Listings.DeleteListing(ctx, key, event); err != nil {
		logger.Error("cancel listing failed on write transaction",
			"event", "cancel_listing_write_failed",
			"module", "trading/nft-marketplace",
			"layer", "application",
			"collection", key.Collection,
			"token_id", key.TokenID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("listing canceled",
		"event", "marketplace_listing_canceled",
		"module", "trading/nft-marketplace",
		"layer", "application",
		"collection", key.Collection,
		"token_id", key.TokenID,
		"seller", listing.Seller,
	)
	return nil
}

func (u CancelListingUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
