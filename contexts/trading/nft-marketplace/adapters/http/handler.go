package httpadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/application/commands"
	"nftmarket/contexts/trading/nft-marketplace/application/queries"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	httptransport "nftmarket/contexts/trading/nft-marketplace/transport/http"
	"nftmarket/internal/shared/native"
)

const timeFormat = "2006-01-02T15:04:05Z"

type Handler struct {
	ListItem      commands.ListItemUseCase
	UpdateListing commands.UpdateListingUseCase
	CancelListing commands.CancelListingUseCase
	BuyItem       commands.BuyItemUseCase
	Withdraw      commands.WithdrawEarningsUseCase
	GetListing    queries.GetListingUseCase
	GetEarnings   queries.GetEarningsUseCase
	ListListings  queries.ListListingsUseCase
	Logger        *slog.Logger
}

// ListListingsHandler godoc
// @Summary List active listings
// @Description Returns the listing catalog with filters and cursor pagination.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param collection query string false "Collection address filter"
// @Param seller query string false "Seller address filter"
// @Param sort query string false "Sort: newest,price_asc,price_desc"
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} httptransport.ListListingsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/listings [get]
func (h Handler) ListListingsHandler(ctx context.Context, req httptransport.ListListingsRequest) (httptransport.ListListingsResponse, error) {
	result, err := h.ListListings.Execute(ctx, queries.ListListingsQuery{
		Collection: req.Collection,
		Seller:     req.Seller,
		Sort:       req.Sort,
		Cursor:     req.Cursor,
		Limit:      req.Limit,
	})
	if err != nil {
		return httptransport.ListListingsResponse{}, err
	}
	return httptransport.ListListingsResponse{
		Items:      mapListings(result.Items),
		NextCursor: result.NextCursor,
	}, nil
}

// GetListingHandler godoc
// @Summary Get one listing
// @Description Returns the listing for a token, or listed=false when none exists.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param collection path string true "Collection address"
// @Param token_id path string true "Token id"
// @Success 200 {object} httptransport.GetListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/listings/{collection}/{token_id} [get]
func (h Handler) GetListingHandler(ctx context.Context, collection, tokenID string) (httptransport.GetListingResponse, error) {
	result, err := h.GetListing.Execute(ctx, queries.GetListingQuery{
		Collection: collection,
		TokenID:    tokenID,
	})
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	if !result.Listed {
		return httptransport.GetListingResponse{Listed: false}, nil
	}
	item := mapListing(result.Listing)
	return httptransport.GetListingResponse{Listed: true, Item: &item}, nil
}

// ListItemHandler godoc
// @Summary List an item for sale
// @Description Creates a listing for a token owned by the caller and approved for the marketplace.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Caller wallet address"
// @Param request body httptransport.ListItemRequest true "Listing payload"
// @Success 201 {object} httptransport.ListItemResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/listings [post]
func (h Handler) ListItemHandler(ctx context.Context, caller string, req httptransport.ListItemRequest) (httptransport.ListItemResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("list item request received",
		"event", "http_list_item_received",
		"module", "trading/nft-marketplace",
		"layer", "transport",
		"collection", req.Collection,
		"token_id", req.TokenID,
	)

	price, err := parseAmount(req.Price)
	if err != nil {
		return httptransport.ListItemResponse{}, err
	}
	result, err := h.ListItem.Execute(ctx, commands.ListItemCommand{
		Collection: req.Collection,
		TokenID:    req.TokenID,
		Price:      price,
		Caller:     caller,
	})
	if err != nil {
		return httptransport.ListItemResponse{}, err
	}
	return httptransport.ListItemResponse{Item: mapListing(result.Listing)}, nil
}

// UpdateListingHandler godoc
// @Summary Update a listing price
// @Description Sets a new price on an active listing owned by the caller.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Caller wallet address"
// @Param collection path string true "Collection address"
// @Param token_id path string true "Token id"
// @Param request body httptransport.UpdateListingRequest true "Price payload"
// @Success 200 {object} httptransport.UpdateListingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/listings/{collection}/{token_id}/price [post]
func (h Handler) UpdateListingHandler(ctx context.Context, caller, collection, tokenID string, req httptransport.UpdateListingRequest) (httptransport.UpdateListingResponse, error) {
	price, err := parseAmount(req.Price)
	if err != nil {
		return httptransport.UpdateListingResponse{}, err
	}
	result, err := h.UpdateListing.Execute(ctx, commands.UpdateListingCommand{
		Collection: collection,
		TokenID:    tokenID,
		NewPrice:   price,
		Caller:     caller,
	})
	if err != nil {
		return httptransport.UpdateListingResponse{}, err
	}
	return httptransport.UpdateListingResponse{Item: mapListing(result.Listing)}, nil
}

// CancelListingHandler godoc
// @Summary Cancel a listing
// @Description Removes an active listing owned by the caller.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Caller wallet address"
// @Param collection path string true "Collection address"
// @Param token_id path string true "Token id"
// @Success 200 {object} httptransport.CancelListingResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/listings/{collection}/{token_id}/cancel [post]
func (h Handler) CancelListingHandler(ctx context.Context, caller, collection, tokenID string) (httptransport.CancelListingResponse, error) {
	err := h.CancelListing.Execute(ctx, commands.CancelListingCommand{
		Collection: collection,
		TokenID:    tokenID,
		Caller:     caller,
	})
	if err != nil {
		return httptransport.CancelListingResponse{}, err
	}
	return httptransport.CancelListingResponse{Canceled: true}, nil
}

// BuyItemHandler godoc
// @Summary Buy a listed item
// @Description Settles a purchase: payment is captured, the asset transfers and the seller is credited.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Caller wallet address"
// @Param collection path string true "Collection address"
// @Param token_id path string true "Token id"
// @Param request body httptransport.BuyItemRequest true "Payment payload"
// @Success 200 {object} httptransport.BuyItemResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /marketplace/listings/{collection}/{token_id}/buy [post]
func (h Handler) BuyItemHandler(ctx context.Context, caller, collection, tokenID string, req httptransport.BuyItemRequest) (httptransport.BuyItemResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("buy item request received",
		"event", "http_buy_item_received",
		"module", "trading/nft-marketplace",
		"layer", "transport",
		"collection", collection,
		"token_id", tokenID,
	)

	paid, err := parseAmount(req.PaidAmount)
	if err != nil {
		return httptransport.BuyItemResponse{}, err
	}
	result, err := h.BuyItem.Execute(ctx, commands.BuyItemCommand{
		Collection: collection,
		TokenID:    tokenID,
		Caller:     caller,
		PaidAmount: paid,
	})
	if err != nil {
		return httptransport.BuyItemResponse{}, err
	}
	sale := result.Sale
	return httptransport.BuyItemResponse{
		Collection: sale.Collection,
		TokenID:    sale.TokenID,
		Buyer:      sale.Buyer,
		Seller:     sale.Seller,
		Price:      native.Format(sale.Price),
		PaidAmount: native.Format(sale.PaidAmount),
		OccurredAt: sale.OccurredAt.UTC().Format(timeFormat),
	}, nil
}

// GetEarningsHandler godoc
// @Summary Get seller earnings
// @Description Returns the withdrawable balance for a seller, zero when nothing accrued.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param seller path string true "Seller address"
// @Success 200 {object} httptransport.GetEarningsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /marketplace/earnings/{seller} [get]
func (h Handler) GetEarningsHandler(ctx context.Context, seller string) (httptransport.GetEarningsResponse, error) {
	result, err := h.GetEarnings.Execute(ctx, queries.GetEarningsQuery{Seller: seller})
	if err != nil {
		return httptransport.GetEarningsResponse{}, err
	}
	return httptransport.GetEarningsResponse{
		Seller: result.Seller,
		Amount: native.Format(result.Amount),
	}, nil
}

// WithdrawEarningsHandler godoc
// @Summary Withdraw accrued earnings
// @Description Pays out the caller's full balance and zeroes it.
// @Tags nft-marketplace
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Caller wallet address"
// @Success 200 {object} httptransport.WithdrawEarningsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /marketplace/earnings/withdraw [post]
func (h Handler) WithdrawEarningsHandler(ctx context.Context, caller string) (httptransport.WithdrawEarningsResponse, error) {
	result, err := h.Withdraw.Execute(ctx, commands.WithdrawEarningsCommand{Caller: caller})
	if err != nil {
		return httptransport.WithdrawEarningsResponse{}, err
	}
	return httptransport.WithdrawEarningsResponse{
		Seller: entities.NormalizeAddress(caller),
		Amount: native.Format(result.Amount),
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := native.Parse(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidRequest, err)
	}
	return amount, nil
}

func mapListings(listings []entities.Listing) []httptransport.ListingDTO {
	items := make([]httptransport.ListingDTO, 0, len(listings))
	for _, listing := range listings {
		items = append(items, mapListing(listing))
	}
	return items
}

func mapListing(listing entities.Listing) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		Collection: listing.Collection,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		Price:      native.Format(listing.Price),
		ListedAt:   listing.ListedAt.UTC().Format(timeFormat),
		UpdatedAt:  listing.UpdatedAt.UTC().Format(timeFormat),
	}
}
