package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale captures one settled purchase. Price is the amount credited to the
// seller; PaidAmount is what the buyer actually sent. Any surplus stays in
// marketplace escrow and is not refunded.
type Sale struct {
	Collection string
	TokenID    string
	Seller     string
	Buyer      string
	Price      decimal.Decimal
	PaidAmount decimal.Decimal
	OccurredAt time.Time
}

func (s Sale) Key() TokenKey {
	return TokenKey{Collection: s.Collection, TokenID: s.TokenID}
}
