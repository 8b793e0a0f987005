package httptransport

type ListingDTO struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Seller     string `json:"seller"`
	Price      string `json:"price"`
	ListedAt   string `json:"listed_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ListListingsRequest struct {
	Collection string `json:"collection,omitempty"`
	Seller     string `json:"seller,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type ListListingsResponse struct {
	Items      []ListingDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// GetListingResponse reports absence explicitly: listed=false with no item
// is the "no listing" sentinel, never a zeroed item.
type GetListingResponse struct {
	Listed bool        `json:"listed"`
	Item   *ListingDTO `json:"item,omitempty"`
}

type ListItemRequest struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Price      string `json:"price"`
}

type ListItemResponse struct {
	Item ListingDTO `json:"item"`
}

type UpdateListingRequest struct {
	Price string `json:"price"`
}

type UpdateListingResponse struct {
	Item ListingDTO `json:"item"`
}

type CancelListingResponse struct {
	Canceled bool `json:"canceled"`
}

type BuyItemRequest struct {
	PaidAmount string `json:"paid_amount"`
}

type BuyItemResponse struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	Price      string `json:"price"`
	PaidAmount string `json:"paid_amount"`
	OccurredAt string `json:"occurred_at"`
}

type GetEarningsResponse struct {
	Seller string `json:"seller"`
	Amount string `json:"amount"`
}

type WithdrawEarningsResponse struct {
	Seller string `json:"seller"`
	Amount string `json:"amount"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
