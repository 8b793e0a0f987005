package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
)

// TokenKey identifies one asset: the collection contract address plus the
// token id inside that collection. Token ids are kept as decimal strings so
// 256-bit ids survive round trips through transport and storage.
type TokenKey struct {
	Collection string
	TokenID    string
}

// Listing is an active fixed-price sale offer. A listing exists only while
// the asset is actually for sale; absence is signaled with ErrNotListed,
// never with a zero-valued Listing.
type Listing struct {
	Collection string
	TokenID    string
	Seller     string
	Price      decimal.Decimal
	ListedAt   time.Time
	UpdatedAt  time.Time
}

func (l Listing) Key() TokenKey {
	return TokenKey{Collection: l.Collection, TokenID: l.TokenID}
}

// NewListing validates and normalizes a listing at creation time.
// The price floor is the same one updates are held to.
func NewListing(collection string, tokenID string, seller string, price decimal.Decimal, now time.Time) (Listing, error) {
	collection = NormalizeAddress(collection)
	seller = NormalizeAddress(seller)
	tokenID = strings.TrimSpace(tokenID)
	if collection == "" || tokenID == "" || seller == "" {
		return Listing{}, domainerrors.ErrInvalidRequest
	}
	if err := ValidatePrice(price); err != nil {
		return Listing{}, err
	}
	return Listing{
		Collection: collection,
		TokenID:    tokenID,
		Seller:     seller,
		Price:      price,
		ListedAt:   now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// ValidatePrice enforces the strictly-positive price floor shared by
// listItem and updateListing.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return domainerrors.ErrPriceMustBeAboveZero
	}
	return nil
}

// NormalizeAddress canonicalizes hex identities so ownership comparisons
// are never defeated by casing or whitespace.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
