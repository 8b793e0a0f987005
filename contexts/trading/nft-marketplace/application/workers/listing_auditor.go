package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

// ListingAuditor sweeps active listings and cancels the ones that went
// stale: the seller no longer owns the asset, or the marketplace approval
// was revoked. listItem verifies both at creation time, but nothing stops an
// owner from moving the asset afterwards; the auditor closes that window
// out-of-band so buyers do not burn calls on listings that can never settle.
type ListingAuditor struct {
	Listings    ports.ListingRepository
	Registry    ports.AssetRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	BatchSize   int
	Logger      *slog.Logger
}

func (a ListingAuditor) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(a.Logger)
	limit := a.BatchSize
	if limit <= 0 {
		limit = 100
	}

	canceled := 0
	cursor := ""
	for {
		page, nextCursor, err := a.Listings.ListListings(ctx, ports.ListingFilter{
			Sort:   "newest",
			Cursor: cursor,
			Limit:  limit,
		})
		if err != nil {
			logger.Error("listing audit page load failed",
				"event", "marketplace_listing_audit_page_failed",
				"module", "trading/nft-marketplace",
				"layer", "worker",
				"error", err.Error(),
			)
			return err
		}

		for _, listing := range page {
			stale, err := a.isStale(ctx, listing)
			if err != nil {
				logger.Warn("listing audit check failed, skipping",
					"event", "marketplace_listing_audit_check_failed",
					"module", "trading/nft-marketplace",
					"layer", "worker",
					"collection", listing.Collection,
					"token_id", listing.TokenID,
					"error", err.Error(),
				)
				continue
			}
			if !stale {
				continue
			}
			if err := a.cancelStale(ctx, listing); err != nil {
				return err
			}
			canceled++
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	if canceled > 0 {
		logger.Info("listing audit sweep completed",
			"event", "marketplace_listing_audit_completed",
			"module", "trading/nft-marketplace",
			"layer", "worker",
			"canceled_count", canceled,
		)
	}
	return nil
}

func (a ListingAuditor) isStale(ctx context.Context, listing entities.Listing) (bool, error) {
	owner, err := a.Registry.OwnerOf(ctx, listing.Collection, listing.TokenID)
	if err != nil {
		return false, err
	}
	if entities.NormalizeAddress(owner) != listing.Seller {
		return true, nil
	}
	approved, err := a.Registry.IsApprovedForMarketplace(ctx, listing.Collection, listing.TokenID)
	if err != nil {
		return false, err
	}
	return !approved, nil
}

func (a ListingAuditor) cancelStale(ctx context.Context, listing entities.Listing) error {
	now := time.Now().UTC()
	if a.Clock != nil {
		now = a.Clock.Now().UTC()
	}
	eventID, err := a.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	event := ports.ItemCanceledEvent{
		EventID:      eventID,
		Seller:       listing.Seller,
		Collection:   listing.Collection,
		TokenID:      listing.TokenID,
		Reason:       ports.CancelReasonStale,
		PartitionKey: fmt.Sprintf("%s:%s", listing.Collection, listing.TokenID),
		OccurredAt:   now,
	}
	return a.Listings.DeleteListing(ctx, listing.Key(), event)
}
