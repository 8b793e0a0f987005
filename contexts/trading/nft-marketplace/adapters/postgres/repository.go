package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository persists listings, earnings and the marketplace outbox. Every
// mutating port method is one transaction: the state change and its outbox
// row commit or roll back together, and settlement/payout callbacks run
// inside the transaction so their failure aborts the whole operation.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetListing(ctx context.Context, key entities.TokenKey) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("collection = ? AND token_id = ?", key.Collection, key.TokenID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrNotListed
		}
		return entities.Listing{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListListings(ctx context.Context, filter ports.ListingFilter) ([]entities.Listing, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&listingModel{})
	if filter.Collection != "" {
		tx = tx.Where("collection = ?", filter.Collection)
	}
	if filter.Seller != "" {
		tx = tx.Where("seller = ?", filter.Seller)
	}
	tx = applyListingSort(tx, filter.Sort)

	offset := decodeCursor(filter.Cursor)
	if offset < 0 {
		offset = 0
	}

	var rows []listingModel
	if err := tx.Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) CreateListing(ctx context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	payload, err := listedPayload(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := listingModelFromEntity(listing)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyListed
			}
			return err
		}
		return createOutboxRow(tx, event.EventID, ports.EventTypeItemListed, event.PartitionKey, payload, event.OccurredAt)
	})
}

func (r *Repository) UpdateListingPrice(
	ctx context.Context,
	key entities.TokenKey,
	price decimal.Decimal,
	updatedAt time.Time,
	event ports.ItemListedEvent,
) error {
	payload, err := listedPayload(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&listingModel{}).
			Where("collection = ? AND token_id = ?", key.Collection, key.TokenID).
			Updates(map[string]any{
				"price":      price,
				"updated_at": updatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotListed
		}
		return createOutboxRow(tx, event.EventID, ports.EventTypeItemListed, event.PartitionKey, payload, event.OccurredAt)
	})
}

func (r *Repository) DeleteListing(ctx context.Context, key entities.TokenKey, event ports.ItemCanceledEvent) error {
	payload, err := canceledPayload(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("collection = ? AND token_id = ?", key.Collection, key.TokenID).
			Delete(&listingModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotListed
		}
		return createOutboxRow(tx, event.EventID, ports.EventTypeItemCanceled, event.PartitionKey, payload, event.OccurredAt)
	})
}

// CompleteSale locks the listing row, applies deletion, earnings credit and
// the purchase outbox row, then runs settle still inside the transaction so
// a settlement failure rolls every effect back.
func (r *Repository) CompleteSale(
	ctx context.Context,
	sale entities.Sale,
	event ports.ItemBoughtEvent,
	settle func(context.Context) error,
) error {
	payload, err := boughtPayload(event)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row listingModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND token_id = ?", sale.Collection, sale.TokenID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotListed
			}
			return err
		}

		if err := tx.
			Where("collection = ? AND token_id = ?", sale.Collection, sale.TokenID).
			Delete(&listingModel{}).
			Error; err != nil {
			return err
		}

		// Stored state is authoritative for the credit amount.
		if err := creditEarnings(tx, row.Seller, row.Price, event.OccurredAt); err != nil {
			return err
		}
		if err := createOutboxRow(tx, event.EventID, ports.EventTypeItemBought, event.PartitionKey, payload, event.OccurredAt); err != nil {
			return err
		}
		return settle(ctx)
	})
}

func (r *Repository) GetEarnings(ctx context.Context, seller string) (decimal.Decimal, error) {
	var row earningsModel
	err := r.db.WithContext(ctx).
		Where("seller = ?", seller).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Amount, nil
}

// WithdrawAll zeroes the balance inside the transaction before payout runs;
// a payout error rolls the zeroing back and surfaces as ErrTransferFailed.
func (r *Repository) WithdrawAll(
	ctx context.Context,
	seller string,
	payout func(context.Context, decimal.Decimal) error,
) (decimal.Decimal, error) {
	var withdrawn decimal.Decimal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row earningsModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("seller = ?", seller).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNoEarnings
			}
			return err
		}
		if !row.Amount.IsPositive() {
			return domainerrors.ErrNoEarnings
		}

		if err := tx.Model(&earningsModel{}).
			Where("seller = ?", seller).
			Updates(map[string]any{
				"amount":     decimal.Zero,
				"updated_at": time.Now().UTC(),
			}).
			Error; err != nil {
			return err
		}

		if err := payout(ctx, row.Amount); err != nil {
			return fmt.Errorf("%w: %v", domainerrors.ErrTransferFailed, err)
		}
		withdrawn = row.Amount
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return withdrawn, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toPort())
	}
	return messages, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	sent := sentAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": &sent,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func creditEarnings(tx *gorm.DB, seller string, amount decimal.Decimal, occurredAt time.Time) error {
	return tx.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seller"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount":     gorm.Expr("seller_earnings.amount + EXCLUDED.amount"),
				"updated_at": occurredAt.UTC(),
			}),
		}).
		Create(&earningsModel{
			Seller:    seller,
			Amount:    amount,
			UpdatedAt: occurredAt.UTC(),
		}).
		Error
}

func createOutboxRow(tx *gorm.DB, eventID string, eventType string, partitionKey string, payload []byte, occurredAt time.Time) error {
	row := outboxModel{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    occurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func buildEnvelope(eventID string, eventType string, partitionKey string, occurredAt time.Time, data map[string]string) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "nft-marketplace",
		SchemaVersion:    1,
		PartitionKeyPath: "token_key",
		PartitionKey:     partitionKey,
		Data:             raw,
	})
}

func listedPayload(event ports.ItemListedEvent) ([]byte, error) {
	return buildEnvelope(event.EventID, ports.EventTypeItemListed, event.PartitionKey, event.OccurredAt, map[string]string{
		"seller":     event.Seller,
		"collection": event.Collection,
		"token_id":   event.TokenID,
		"price":      event.Price.String(),
	})
}

func canceledPayload(event ports.ItemCanceledEvent) ([]byte, error) {
	return buildEnvelope(event.EventID, ports.EventTypeItemCanceled, event.PartitionKey, event.OccurredAt, map[string]string{
		"seller":     event.Seller,
		"collection": event.Collection,
		"token_id":   event.TokenID,
		"reason":     event.Reason,
	})
}

func boughtPayload(event ports.ItemBoughtEvent) ([]byte, error) {
	return buildEnvelope(event.EventID, ports.EventTypeItemBought, event.PartitionKey, event.OccurredAt, map[string]string{
		"buyer":      event.Buyer,
		"seller":     event.Seller,
		"collection": event.Collection,
		"token_id":   event.TokenID,
		"price":      event.Price.String(),
	})
}

func applyListingSort(tx *gorm.DB, sortKey string) *gorm.DB {
	switch sortKey {
	case "price_asc":
		return tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "price"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "collection"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "token_id"}})
	case "price_desc":
		return tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "price"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "collection"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "token_id"}})
	default:
		return tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "listed_at"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "collection"}}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "token_id"}})
	}
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
