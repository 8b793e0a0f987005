package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type GetListingQuery struct {
	Collection string
	TokenID    string
}

// GetListingResult makes listing absence explicit instead of handing out a
// zero-valued listing record.
type GetListingResult struct {
	Listed  bool
	Listing entities.Listing
}

type GetListingUseCase struct {
	Listings ports.ListingRepository
	Logger   *slog.Logger
}

// Execute is the read-only listing accessor. Absence is a valid answer, not
// an error.
func (u GetListingUseCase) Execute(ctx context.Context, query GetListingQuery) (GetListingResult, error) {
	key := entities.TokenKey{
		Collection: entities.NormalizeAddress(query.Collection),
		TokenID:    strings.TrimSpace(query.TokenID),
	}
	if key.Collection == "" || key.TokenID == "" {
		return GetListingResult{}, domainerrors.ErrInvalidRequest
	}

	listing, err := u.Listings.GetListing(ctx, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotListed) {
			return GetListingResult{Listed: false}, nil
		}
		return GetListingResult{}, err
	}
	return GetListingResult{Listed: true, Listing: listing}, nil
}
