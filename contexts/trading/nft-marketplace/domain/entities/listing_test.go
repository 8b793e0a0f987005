package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
)

func TestNewListingNormalizesIdentities(t *testing.T) {
	listing, err := NewListing(" 0xCAFE ", " 42 ", "0xSeller", decimal.NewFromInt(5), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listing.Collection != "0xcafe" || listing.Seller != "0xseller" || listing.TokenID != "42" {
		t.Fatalf("normalization failed: %+v", listing)
	}
}

func TestNewListingRejectsBlankFields(t *testing.T) {
	cases := [][3]string{
		{"", "1", "0xseller"},
		{"0xcafe", " ", "0xseller"},
		{"0xcafe", "1", ""},
	}
	for _, tc := range cases {
		_, err := NewListing(tc[0], tc[1], tc[2], decimal.NewFromInt(5), time.Now())
		if !errors.Is(err, domainerrors.ErrInvalidRequest) {
			t.Fatalf("fields %v: expected ErrInvalidRequest, got %v", tc, err)
		}
	}
}

func TestValidatePriceFloor(t *testing.T) {
	if err := ValidatePrice(decimal.Zero); !errors.Is(err, domainerrors.ErrPriceMustBeAboveZero) {
		t.Fatalf("zero price: expected ErrPriceMustBeAboveZero, got %v", err)
	}
	if err := ValidatePrice(decimal.NewFromInt(-1)); !errors.Is(err, domainerrors.ErrPriceMustBeAboveZero) {
		t.Fatalf("negative price: expected ErrPriceMustBeAboveZero, got %v", err)
	}
	if err := ValidatePrice(decimal.RequireFromString("0.000000000000000001")); err != nil {
		t.Fatalf("smallest positive unit must pass, got %v", err)
	}
}
