package postgresadapter

import (
	"time"

	"github.com/shopspring/decimal"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

type listingModel struct {
	Collection string          `gorm:"column:collection;primaryKey"`
	TokenID    string          `gorm:"column:token_id;primaryKey"`
	Seller     string          `gorm:"column:seller;index"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(78,18)"`
	ListedAt   time.Time       `gorm:"column:listed_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "nft_listings"
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		Collection: m.Collection,
		TokenID:    m.TokenID,
		Seller:     m.Seller,
		Price:      m.Price,
		ListedAt:   m.ListedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func listingModelFromEntity(listing entities.Listing) listingModel {
	return listingModel{
		Collection: listing.Collection,
		TokenID:    listing.TokenID,
		Seller:     listing.Seller,
		Price:      listing.Price,
		ListedAt:   listing.ListedAt.UTC(),
		UpdatedAt:  listing.UpdatedAt.UTC(),
	}
}

type earningsModel struct {
	Seller    string          `gorm:"column:seller;primaryKey"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(78,18)"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (earningsModel) TableName() string {
	return "seller_earnings"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "marketplace_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
