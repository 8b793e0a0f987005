package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	nftmarketplace "nftmarket/contexts/trading/nft-marketplace"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
	httptransport "nftmarket/contexts/trading/nft-marketplace/transport/http"
	"nftmarket/internal/shared/native"
)

const (
	sellerWallet = "0xSellerSellerSellerSellerSellerSellerSe01"
	buyerWallet  = "0xBuyerBuyerBuyerBuyerBuyerBuyerBuyerBu02"
	otherWallet  = "0xOtherOtherOtherOtherOtherOtherOtherOt03"
	collection   = "0xCafeCafeCafeCafeCafeCafeCafeCafeCafeCa04"
)

// newMarketWithToken returns a module plus a freshly minted token owned by
// sellerWallet with marketplace approval already granted.
func newMarketWithToken(t *testing.T) (nftmarketplace.Module, string) {
	t.Helper()
	module := nftmarketplace.NewInMemoryModule(nil)

	tokenID, err := module.Registry.Mint(context.Background(), collection, sellerWallet)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	err = module.Registry.Approve(context.Background(), sellerWallet, collection, tokenID, module.Registry.MarketplaceAddress())
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	return module, tokenID
}

func listToken(t *testing.T, module nftmarketplace.Module, tokenID, price string) {
	t.Helper()
	_, err := module.Handler.ListItemHandler(context.Background(), sellerWallet, httptransport.ListItemRequest{
		Collection: collection,
		TokenID:    tokenID,
		Price:      price,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

func mustAmount(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	amount, err := native.Parse(raw)
	if err != nil {
		t.Fatalf("bad amount %q: %v", raw, err)
	}
	return amount
}

func normalize(address string) string {
	return entities.NormalizeAddress(address)
}

func TestListItemRejectsZeroAndNegativePrice(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	for _, price := range []string{"0", "-1"} {
		_, err := module.Handler.ListItemHandler(context.Background(), sellerWallet, httptransport.ListItemRequest{
			Collection: collection,
			TokenID:    tokenID,
			Price:      price,
		})
		if !errors.Is(err, domainerrors.ErrPriceMustBeAboveZero) {
			t.Fatalf("price %s: expected ErrPriceMustBeAboveZero, got %v", price, err)
		}
	}
}

func TestListItemRequiresOwnership(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	_, err := module.Handler.ListItemHandler(context.Background(), otherWallet, httptransport.ListItemRequest{
		Collection: collection,
		TokenID:    tokenID,
		Price:      "5",
	})
	if !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestListItemRequiresApproval(t *testing.T) {
	module := nftmarketplace.NewInMemoryModule(nil)
	tokenID, err := module.Registry.Mint(context.Background(), collection, sellerWallet)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	_, err = module.Handler.ListItemHandler(context.Background(), sellerWallet, httptransport.ListItemRequest{
		Collection: collection,
		TokenID:    tokenID,
		Price:      "5",
	})
	if !errors.Is(err, domainerrors.ErrNotApprovedForMarketplace) {
		t.Fatalf("expected ErrNotApprovedForMarketplace, got %v", err)
	}
}

func TestListItemRejectsDoubleListing(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")

	_, err := module.Handler.ListItemHandler(context.Background(), sellerWallet, httptransport.ListItemRequest{
		Collection: collection,
		TokenID:    tokenID,
		Price:      "7",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
}

func TestAlreadyListedWinsOverOwnershipCheck(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")

	// A non-owner re-listing an already listed token hits the listed check
	// first.
	_, err := module.Handler.ListItemHandler(context.Background(), otherWallet, httptransport.ListItemRequest{
		Collection: collection,
		TokenID:    tokenID,
		Price:      "7",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
}

func TestGetListingReportsAbsenceWithoutError(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	resp, err := module.Handler.GetListingHandler(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if resp.Listed || resp.Item != nil {
		t.Fatalf("expected listed=false with no item, got %+v", resp)
	}

	listToken(t, module, tokenID, "5")

	resp, err = module.Handler.GetListingHandler(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if !resp.Listed || resp.Item == nil {
		t.Fatalf("expected active listing, got %+v", resp)
	}
	if resp.Item.Price != "5" {
		t.Fatalf("expected price 5, got %s", resp.Item.Price)
	}
}

func TestUpdateListingChangesPriceAndReemitsListedEvent(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")

	resp, err := module.Handler.UpdateListingHandler(context.Background(), sellerWallet, collection, tokenID, httptransport.UpdateListingRequest{
		Price: "9",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if resp.Item.Price != "9" {
		t.Fatalf("expected price 9, got %s", resp.Item.Price)
	}

	events := module.Store.OutboxEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 outbox events, got %d", len(events))
	}
	if events[1].EventType != ports.EventTypeItemListed {
		t.Fatalf("expected %s, got %s", ports.EventTypeItemListed, events[1].EventType)
	}
}

func TestUpdateListingPreconditions(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	_, err := module.Handler.UpdateListingHandler(context.Background(), sellerWallet, collection, tokenID, httptransport.UpdateListingRequest{
		Price: "9",
	})
	if !errors.Is(err, domainerrors.ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}

	listToken(t, module, tokenID, "5")

	_, err = module.Handler.UpdateListingHandler(context.Background(), otherWallet, collection, tokenID, httptransport.UpdateListingRequest{
		Price: "9",
	})
	if !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	_, err = module.Handler.UpdateListingHandler(context.Background(), sellerWallet, collection, tokenID, httptransport.UpdateListingRequest{
		Price: "0",
	})
	if !errors.Is(err, domainerrors.ErrPriceMustBeAboveZero) {
		t.Fatalf("expected ErrPriceMustBeAboveZero, got %v", err)
	}
}

func TestCancelListingRemovesListing(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")

	_, err := module.Handler.CancelListingHandler(context.Background(), sellerWallet, collection, tokenID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	resp, err := module.Handler.GetListingHandler(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if resp.Listed {
		t.Fatalf("expected listing gone after cancel")
	}

	events := module.Store.OutboxEvents()
	last := events[len(events)-1]
	if last.EventType != ports.EventTypeItemCanceled {
		t.Fatalf("expected %s, got %s", ports.EventTypeItemCanceled, last.EventType)
	}
}

func TestCancelListingPreconditions(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	_, err := module.Handler.CancelListingHandler(context.Background(), sellerWallet, collection, tokenID)
	if !errors.Is(err, domainerrors.ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}

	listToken(t, module, tokenID, "5")

	_, err = module.Handler.CancelListingHandler(context.Background(), otherWallet, collection, tokenID)
	if !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestBuyItemSettlesSale(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")
	if err := module.Vault.Deposit(context.Background(), buyerWallet, mustAmount(t, "10")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	resp, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "5",
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if resp.Price != "5" {
		t.Fatalf("expected sale price 5, got %s", resp.Price)
	}

	owner, err := module.Registry.OwnerOf(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if owner != normalize(buyerWallet) {
		t.Fatalf("expected buyer to own the token, got %s", owner)
	}

	listing, err := module.Handler.GetListingHandler(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if listing.Listed {
		t.Fatalf("expected listing gone after sale")
	}

	earnings, err := module.Handler.GetEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.Amount != "5" {
		t.Fatalf("expected seller earnings 5, got %s", earnings.Amount)
	}

	events := module.Store.OutboxEvents()
	last := events[len(events)-1]
	if last.EventType != ports.EventTypeItemBought {
		t.Fatalf("expected %s, got %s", ports.EventTypeItemBought, last.EventType)
	}
}

func TestBuyItemRejectsUnderpayment(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")

	_, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "4.999999999999999999",
	})
	if !errors.Is(err, domainerrors.ErrPriceNotMet) {
		t.Fatalf("expected ErrPriceNotMet, got %v", err)
	}
}

func TestBuyItemRejectsUnlistedToken(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	_, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "5",
	})
	if !errors.Is(err, domainerrors.ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}
}

func TestBuyItemOverpaymentCreditsOnlyAskPrice(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")
	if err := module.Vault.Deposit(context.Background(), buyerWallet, mustAmount(t, "10")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	_, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "8",
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	earnings, err := module.Handler.GetEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.Amount != "5" {
		t.Fatalf("expected credited ask price 5, got %s", earnings.Amount)
	}
	if got := module.Vault.Balance(buyerWallet).String(); got != "2" {
		t.Fatalf("expected buyer balance 2 after paying 8, got %s", got)
	}
}

func TestBuyItemRollsBackWhenPaymentFails(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")
	// Buyer has no funds, so CapturePayment fails inside settlement.

	_, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "5",
	})
	if err == nil {
		t.Fatalf("expected settlement failure")
	}

	resp, err := module.Handler.GetListingHandler(context.Background(), collection, tokenID)
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if !resp.Listed {
		t.Fatalf("expected listing restored after failed settlement")
	}

	earnings, err := module.Handler.GetEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.Amount != "0" {
		t.Fatalf("expected earnings rolled back to 0, got %s", earnings.Amount)
	}

	for _, event := range module.Store.OutboxEvents() {
		if event.EventType == ports.EventTypeItemBought {
			t.Fatalf("bought event must not survive a rolled back sale")
		}
	}
}

func TestWithdrawEarningsPaysOutFullBalance(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")
	if err := module.Vault.Deposit(context.Background(), buyerWallet, mustAmount(t, "5")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "5",
	}); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	resp, err := module.Handler.WithdrawEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if resp.Amount != "5" {
		t.Fatalf("expected withdrawal of 5, got %s", resp.Amount)
	}
	if got := module.Vault.Balance(sellerWallet).String(); got != "5" {
		t.Fatalf("expected seller wallet balance 5, got %s", got)
	}

	earnings, err := module.Handler.GetEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.Amount != "0" {
		t.Fatalf("expected zero balance after withdrawal, got %s", earnings.Amount)
	}
}

func TestWithdrawEarningsRejectsEmptyBalance(t *testing.T) {
	module := nftmarketplace.NewInMemoryModule(nil)

	_, err := module.Handler.WithdrawEarningsHandler(context.Background(), sellerWallet)
	if !errors.Is(err, domainerrors.ErrNoEarnings) {
		t.Fatalf("expected ErrNoEarnings, got %v", err)
	}
}

func TestWithdrawEarningsRestoresBalanceWhenPayoutFails(t *testing.T) {
	module, tokenID := newMarketWithToken(t)
	listToken(t, module, tokenID, "5")
	if err := module.Vault.Deposit(context.Background(), buyerWallet, mustAmount(t, "5")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := module.Handler.BuyItemHandler(context.Background(), buyerWallet, collection, tokenID, httptransport.BuyItemRequest{
		PaidAmount: "5",
	}); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	module.Vault.SetPayoutRejected(sellerWallet, true)
	_, err := module.Handler.WithdrawEarningsHandler(context.Background(), sellerWallet)
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	earnings, err := module.Handler.GetEarningsHandler(context.Background(), sellerWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if earnings.Amount != "5" {
		t.Fatalf("expected balance restored to 5, got %s", earnings.Amount)
	}
}

func TestGetEarningsDefaultsToZero(t *testing.T) {
	module := nftmarketplace.NewInMemoryModule(nil)

	resp, err := module.Handler.GetEarningsHandler(context.Background(), otherWallet)
	if err != nil {
		t.Fatalf("get earnings failed: %v", err)
	}
	if resp.Amount != "0" {
		t.Fatalf("expected zero earnings, got %s", resp.Amount)
	}
}

func TestListListingsFiltersAndPaginates(t *testing.T) {
	module := nftmarketplace.NewInMemoryModule(nil)

	for i := 0; i < 3; i++ {
		tokenID, err := module.Registry.Mint(context.Background(), collection, sellerWallet)
		if err != nil {
			t.Fatalf("mint failed: %v", err)
		}
		err = module.Registry.Approve(context.Background(), sellerWallet, collection, tokenID, module.Registry.MarketplaceAddress())
		if err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		listToken(t, module, tokenID, "5")
	}

	page1, err := module.Handler.ListListingsHandler(context.Background(), httptransport.ListListingsRequest{
		Collection: collection,
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("list listings failed: %v", err)
	}
	if len(page1.Items) != 2 || page1.NextCursor == "" {
		t.Fatalf("expected first page of 2 with cursor, got %d items cursor %q", len(page1.Items), page1.NextCursor)
	}

	page2, err := module.Handler.ListListingsHandler(context.Background(), httptransport.ListListingsRequest{
		Collection: collection,
		Limit:      2,
		Cursor:     page1.NextCursor,
	})
	if err != nil {
		t.Fatalf("list listings failed: %v", err)
	}
	if len(page2.Items) != 1 || page2.NextCursor != "" {
		t.Fatalf("expected final page of 1, got %d items cursor %q", len(page2.Items), page2.NextCursor)
	}

	_, err = module.Handler.ListListingsHandler(context.Background(), httptransport.ListListingsRequest{
		Sort: "by_vibes",
	})
	if !errors.Is(err, domainerrors.ErrInvalidListFilter) {
		t.Fatalf("expected ErrInvalidListFilter, got %v", err)
	}
}

func TestAmountParsingRejectsGarbage(t *testing.T) {
	module, tokenID := newMarketWithToken(t)

	for _, price := range []string{"", "abc", "1.2.3", "5,0", "0.1234567890123456789"} {
		_, err := module.Handler.ListItemHandler(context.Background(), sellerWallet, httptransport.ListItemRequest{
			Collection: collection,
			TokenID:    tokenID,
			Price:      price,
		})
		if !errors.Is(err, domainerrors.ErrInvalidRequest) {
			t.Fatalf("price %q: expected ErrInvalidRequest, got %v", price, err)
		}
	}
}
