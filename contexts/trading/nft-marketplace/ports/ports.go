package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	contractsv1 "nftmarket/contracts/gen/events/v1"
)

// Canonical event types emitted by the marketplace.
const (
	EventTypeItemListed   = "marketplace.item_listed"
	EventTypeItemCanceled = "marketplace.item_canceled"
	EventTypeItemBought   = "marketplace.item_bought"
)

// Cancellation reasons recorded on ItemCanceled events.
const (
	CancelReasonSeller = "canceled_by_seller"
	CancelReasonStale  = "stale_listing"
)

// ListingFilter defines read-side filtering/pagination for the listing catalog.
type ListingFilter struct {
	Collection string
	Seller     string
	Sort       string // newest (default), price_asc, price_desc
	Cursor     string
	Limit      int
}

// ItemListedEvent is emitted when a listing is created and re-emitted when
// its price changes (an update is modeled as re-listing).
type ItemListedEvent struct {
	EventID      string
	Seller       string
	Collection   string
	TokenID      string
	Price        decimal.Decimal
	PartitionKey string
	OccurredAt   time.Time
}

type ItemCanceledEvent struct {
	EventID      string
	Seller       string
	Collection   string
	TokenID      string
	Reason       string
	PartitionKey string
	OccurredAt   time.Time
}

type ItemBoughtEvent struct {
	EventID      string
	Buyer        string
	Seller       string
	Collection   string
	TokenID      string
	Price        decimal.Decimal
	PartitionKey string
	OccurredAt   time.Time
}

// ListingRepository owns listing persistence and the transaction boundaries
// of every listing state change. Each mutating method atomically persists
// the state change together with its outbox event.
type ListingRepository interface {
	GetListing(ctx context.Context, key entities.TokenKey) (entities.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]entities.Listing, string, error)
	CreateListing(ctx context.Context, listing entities.Listing, event ItemListedEvent) error
	UpdateListingPrice(ctx context.Context, key entities.TokenKey, price decimal.Decimal, updatedAt time.Time, event ItemListedEvent) error
	DeleteListing(ctx context.Context, key entities.TokenKey, event ItemCanceledEvent) error
	// CompleteSale removes the listing, credits the seller's earnings and
	// appends the purchase outbox row, all before settle runs. A settle
	// error rolls every one of those effects back. A reentrant purchase
	// attempt issued from inside settle must observe the listing as gone.
	CompleteSale(ctx context.Context, sale entities.Sale, event ItemBoughtEvent, settle func(context.Context) error) error
}

// EarningsLedger accumulates sale proceeds per seller and pays them out.
type EarningsLedger interface {
	GetEarnings(ctx context.Context, seller string) (decimal.Decimal, error)
	// WithdrawAll zeroes the seller's balance strictly before payout runs,
	// so a reentrant withdrawal observes zero. A payout error restores the
	// balance and surfaces as ErrTransferFailed.
	WithdrawAll(ctx context.Context, seller string, payout func(context.Context, decimal.Decimal) error) (decimal.Decimal, error)
}

// AssetRegistry is the external collaborator owning asset ownership state.
// The marketplace reads it for precondition checks and calls Transfer to
// settle sales; it never caches ownership across operations.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, collection string, tokenID string) (string, error)
	IsApprovedForMarketplace(ctx context.Context, collection string, tokenID string) (bool, error)
	Transfer(ctx context.Context, from string, to string, collection string, tokenID string) error
}

// ValueVault custodies native value: sale payments are captured into
// marketplace escrow and withdrawn earnings are paid back out of it.
type ValueVault interface {
	CapturePayment(ctx context.Context, buyer string, amount decimal.Decimal) error
	PayOut(ctx context.Context, recipient string, amount decimal.Decimal) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event/record identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
