package queries

import (
	"context"
	"log/slog"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

const maxListingsPageSize = 50

type ListListingsQuery struct {
	Collection string
	Seller     string
	Sort       string
	Cursor     string
	Limit      int
}

type ListListingsResult struct {
	Items      []entities.Listing
	NextCursor string
}

type ListListingsUseCase struct {
	Listings ports.ListingRepository
	Logger   *slog.Logger
}

// Execute is the catalog browse surface for front ends.
func (u ListListingsUseCase) Execute(ctx context.Context, query ListListingsQuery) (ListListingsResult, error) {
	switch query.Sort {
	case "", "newest", "price_asc", "price_desc":
	default:
		return ListListingsResult{}, domainerrors.ErrInvalidListFilter
	}
	limit := query.Limit
	if limit < 0 {
		return ListListingsResult{}, domainerrors.ErrInvalidListFilter
	}
	if limit > maxListingsPageSize {
		limit = maxListingsPageSize
	}

	items, nextCursor, err := u.Listings.ListListings(ctx, ports.ListingFilter{
		Collection: entities.NormalizeAddress(query.Collection),
		Seller:     entities.NormalizeAddress(query.Seller),
		Sort:       query.Sort,
		Cursor:     query.Cursor,
		Limit:      limit,
	})
	if err != nil {
		return ListListingsResult{}, err
	}
	return ListListingsResult{Items: items, NextCursor: nextCursor}, nil
}
