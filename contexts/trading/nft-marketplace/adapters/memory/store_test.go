package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

func seedListing(t *testing.T, store *Store, tokenID, seller, price string) entities.Listing {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("bad price %q: %v", price, err)
	}
	listing := entities.Listing{
		Collection: "0xcollection",
		TokenID:    tokenID,
		Seller:     seller,
		Price:      amount,
		ListedAt:   time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	err = store.CreateListing(context.Background(), listing, ports.ItemListedEvent{
		EventID:      "evt-list-" + tokenID,
		Seller:       seller,
		Collection:   listing.Collection,
		TokenID:      tokenID,
		Price:        amount,
		PartitionKey: listing.Collection + ":" + tokenID,
		OccurredAt:   listing.ListedAt,
	})
	if err != nil {
		t.Fatalf("seed listing failed: %v", err)
	}
	return listing
}

func TestStoreCreateListingRejectsDuplicateKey(t *testing.T) {
	store := NewStore(nil)
	listing := seedListing(t, store, "1", "0xseller", "5")

	err := store.CreateListing(context.Background(), listing, ports.ItemListedEvent{EventID: "evt-dup"})
	if !errors.Is(err, domainerrors.ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
}

func TestStoreCompleteSaleRollsBackAllEffects(t *testing.T) {
	store := NewStore(nil)
	listing := seedListing(t, store, "1", "0xseller", "5")

	settleErr := errors.New("settlement exploded")
	sale := entities.Sale{
		Collection: listing.Collection,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		Buyer:      "0xbuyer",
		Price:      listing.Price,
		PaidAmount: listing.Price,
		OccurredAt: time.Now().UTC(),
	}
	err := store.CompleteSale(context.Background(), sale, ports.ItemBoughtEvent{EventID: "evt-buy"}, func(context.Context) error {
		return settleErr
	})
	if !errors.Is(err, settleErr) {
		t.Fatalf("expected settle error to surface, got %v", err)
	}

	restored, err := store.GetListing(context.Background(), listing.Key())
	if err != nil {
		t.Fatalf("listing should be restored: %v", err)
	}
	if !restored.Price.Equal(listing.Price) {
		t.Fatalf("restored listing price mismatch: %s", restored.Price)
	}

	earnings, err := store.GetEarnings(context.Background(), listing.Seller)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if !earnings.IsZero() {
		t.Fatalf("earnings should be rolled back, got %s", earnings)
	}

	for _, event := range store.OutboxEvents() {
		if event.OutboxID == "evt-buy" {
			t.Fatalf("bought outbox row should be removed on rollback")
		}
	}
}

func TestStoreCompleteSaleCreditsStoredPriceNotSalePrice(t *testing.T) {
	store := NewStore(nil)
	listing := seedListing(t, store, "1", "0xseller", "5")

	sale := entities.Sale{
		Collection: listing.Collection,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		Buyer:      "0xbuyer",
		Price:      decimal.NewFromInt(999),
		PaidAmount: decimal.NewFromInt(999),
		OccurredAt: time.Now().UTC(),
	}
	err := store.CompleteSale(context.Background(), sale, ports.ItemBoughtEvent{EventID: "evt-buy"}, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("complete sale failed: %v", err)
	}

	earnings, err := store.GetEarnings(context.Background(), listing.Seller)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.String() != "5" {
		t.Fatalf("credit must come from stored listing, got %s", earnings)
	}
}

func TestStoreWithdrawAllRestoresBalanceOnPayoutFailure(t *testing.T) {
	store := NewStore(nil)
	listing := seedListing(t, store, "1", "0xseller", "5")
	sale := entities.Sale{
		Collection: listing.Collection,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		Buyer:      "0xbuyer",
		Price:      listing.Price,
		PaidAmount: listing.Price,
		OccurredAt: time.Now().UTC(),
	}
	if err := store.CompleteSale(context.Background(), sale, ports.ItemBoughtEvent{EventID: "evt-buy"}, func(context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("complete sale failed: %v", err)
	}

	payoutErr := errors.New("vault refused")
	var observed decimal.Decimal
	_, err := store.WithdrawAll(context.Background(), listing.Seller, func(_ context.Context, amount decimal.Decimal) error {
		observed = amount
		return payoutErr
	})
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if observed.String() != "5" {
		t.Fatalf("payout should receive the full balance, got %s", observed)
	}

	balance, err := store.GetEarnings(context.Background(), listing.Seller)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if balance.String() != "5" {
		t.Fatalf("balance should be restored after failed payout, got %s", balance)
	}
}

func TestStoreWithdrawAllZeroBalance(t *testing.T) {
	store := NewStore(nil)

	_, err := store.WithdrawAll(context.Background(), "0xnobody", func(context.Context, decimal.Decimal) error {
		t.Fatalf("payout must not run for an empty balance")
		return nil
	})
	if !errors.Is(err, domainerrors.ErrNoEarnings) {
		t.Fatalf("expected ErrNoEarnings, got %v", err)
	}
}

func TestStoreListListingsSortsAndPaginates(t *testing.T) {
	store := NewStore(nil)
	seedListing(t, store, "1", "0xseller", "30")
	seedListing(t, store, "2", "0xseller", "10")
	seedListing(t, store, "3", "0xother", "20")

	page, cursor, err := store.ListListings(context.Background(), ports.ListingFilter{Sort: "price_asc", Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 2 || page[0].Price.String() != "10" || page[1].Price.String() != "20" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if cursor == "" {
		t.Fatalf("expected a next cursor")
	}

	rest, cursor, err := store.ListListings(context.Background(), ports.ListingFilter{Sort: "price_asc", Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Price.String() != "30" {
		t.Fatalf("unexpected final page: %+v", rest)
	}
	if cursor != "" {
		t.Fatalf("expected no cursor on final page, got %q", cursor)
	}

	bySeller, _, err := store.ListListings(context.Background(), ports.ListingFilter{Seller: "0xother"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bySeller) != 1 || bySeller[0].TokenID != "3" {
		t.Fatalf("unexpected seller filter result: %+v", bySeller)
	}
}

func TestStoreOutboxLifecycle(t *testing.T) {
	store := NewStore(nil)
	seedListing(t, store, "1", "0xseller", "5")
	seedListing(t, store, "2", "0xseller", "6")

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}

	if err := store.MarkOutboxSent(context.Background(), pending[0].OutboxID, time.Now()); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row after ack, got %d", len(pending))
	}

	if err := store.MarkOutboxSent(context.Background(), "missing", time.Now()); !errors.Is(err, domainerrors.ErrRepositoryInvariantBroke) {
		t.Fatalf("expected ErrRepositoryInvariantBroke, got %v", err)
	}
}
