package workers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"nftmarket/contexts/trading/nft-marketplace/adapters/memory"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

const auditorMarketplace = "0xmarketplace"

func auditorFixture(t *testing.T) (*memory.Store, *memory.Registry, ListingAuditor) {
	t.Helper()
	store := memory.NewStore(nil)
	registry := memory.NewRegistry(auditorMarketplace, nil)
	auditor := ListingAuditor{
		Listings:    store,
		Registry:    registry,
		Clock:       store,
		IDGenerator: store,
		BatchSize:   2,
	}
	return store, registry, auditor
}

func mintListedToken(t *testing.T, store *memory.Store, registry *memory.Registry, seller string) entities.TokenKey {
	t.Helper()
	ctx := context.Background()

	tokenID, err := registry.Mint(ctx, "0xcollection", seller)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := registry.Approve(ctx, seller, "0xcollection", tokenID, auditorMarketplace); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	listing := entities.Listing{
		Collection: "0xcollection",
		TokenID:    tokenID,
		Seller:     entities.NormalizeAddress(seller),
		Price:      decimal.NewFromInt(5),
		ListedAt:   store.Now(),
		UpdatedAt:  store.Now(),
	}
	err = store.CreateListing(ctx, listing, ports.ItemListedEvent{
		EventID:    "evt-list-" + tokenID,
		Seller:     listing.Seller,
		Collection: listing.Collection,
		TokenID:    tokenID,
		Price:      listing.Price,
		OccurredAt: listing.ListedAt,
	})
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	return listing.Key()
}

func TestListingAuditorCancelsListingAfterOwnershipMoved(t *testing.T) {
	store, registry, auditor := auditorFixture(t)
	ctx := context.Background()
	key := mintListedToken(t, store, registry, "0xseller")

	// Owner moves the asset outside the marketplace.
	if err := registry.Transfer(ctx, "0xseller", "0xstranger", key.Collection, key.TokenID); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if err := auditor.RunOnce(ctx); err != nil {
		t.Fatalf("audit sweep failed: %v", err)
	}

	_, err := store.GetListing(ctx, key)
	if err != domainerrors.ErrNotListed {
		t.Fatalf("expected stale listing gone, got %v", err)
	}

	events := store.OutboxEvents()
	last := events[len(events)-1]
	if last.EventType != ports.EventTypeItemCanceled {
		t.Fatalf("expected canceled event, got %s", last.EventType)
	}
}

func TestListingAuditorCancelsListingAfterApprovalRevoked(t *testing.T) {
	store, registry, auditor := auditorFixture(t)
	ctx := context.Background()
	key := mintListedToken(t, store, registry, "0xseller")

	// Approval handed to someone other than the marketplace.
	if err := registry.Approve(ctx, "0xseller", key.Collection, key.TokenID, "0xstranger"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := auditor.RunOnce(ctx); err != nil {
		t.Fatalf("audit sweep failed: %v", err)
	}

	if _, err := store.GetListing(ctx, key); err != domainerrors.ErrNotListed {
		t.Fatalf("expected stale listing gone, got %v", err)
	}
}

func TestListingAuditorKeepsHealthyListingsAcrossPages(t *testing.T) {
	store, registry, auditor := auditorFixture(t)
	ctx := context.Background()

	var keys []entities.TokenKey
	for i := 0; i < 5; i++ {
		keys = append(keys, mintListedToken(t, store, registry, "0xseller"))
	}

	if err := auditor.RunOnce(ctx); err != nil {
		t.Fatalf("audit sweep failed: %v", err)
	}

	for _, key := range keys {
		if _, err := store.GetListing(ctx, key); err != nil {
			t.Fatalf("healthy listing %s removed: %v", key.TokenID, err)
		}
	}
}
