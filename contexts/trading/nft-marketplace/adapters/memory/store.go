package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
	domainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

// Store is an in-memory adapter implementing the marketplace persistence
// ports for local runtime and tests. It approximates the serialized-ledger
// execution model: every state change happens inside one critical section,
// and external callbacks (settlement, payout) run only after that section
// commits, so reentrant calls observe fully-updated state.
type Store struct {
	mu          sync.Mutex
	listings    map[entities.TokenKey]entities.Listing
	earnings    map[string]decimal.Decimal
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
	logger      *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		listings:    make(map[entities.TokenKey]entities.Listing),
		earnings:    make(map[string]decimal.Decimal),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) GetListing(_ context.Context, key entities.TokenKey) (entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[key]
	if !ok {
		return entities.Listing{}, domainerrors.ErrNotListed
	}
	return listing, nil
}

func (s *Store) ListListings(_ context.Context, filter ports.ListingFilter) ([]entities.Listing, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []entities.Listing
	for _, listing := range s.listings {
		if filter.Collection != "" && listing.Collection != filter.Collection {
			continue
		}
		if filter.Seller != "" && listing.Seller != filter.Seller {
			continue
		}
		filtered = append(filtered, listing)
	}

	sort.Slice(filtered, func(i, j int) bool {
		switch filter.Sort {
		case "price_asc":
			if filtered[i].Price.Equal(filtered[j].Price) {
				return listingSortKey(filtered[i]) < listingSortKey(filtered[j])
			}
			return filtered[i].Price.LessThan(filtered[j].Price)
		case "price_desc":
			if filtered[i].Price.Equal(filtered[j].Price) {
				return listingSortKey(filtered[i]) < listingSortKey(filtered[j])
			}
			return filtered[i].Price.GreaterThan(filtered[j].Price)
		default:
			if filtered[i].ListedAt.Equal(filtered[j].ListedAt) {
				return listingSortKey(filtered[i]) < listingSortKey(filtered[j])
			}
			return filtered[i].ListedAt.After(filtered[j].ListedAt)
		}
	})

	start := decodeCursor(filter.Cursor)
	if start > len(filtered) {
		start = len(filtered)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := append([]entities.Listing(nil), filtered[start:end]...)
	nextCursor := ""
	if end < len(filtered) {
		nextCursor = encodeCursor(end)
	}
	return page, nextCursor, nil
}

func (s *Store) CreateListing(_ context.Context, listing entities.Listing, event ports.ItemListedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.Key()]; ok {
		return domainerrors.ErrAlreadyListed
	}
	s.listings[listing.Key()] = listing
	if err := s.appendOutboxLocked(listedEnvelope(event)); err != nil {
		delete(s.listings, listing.Key())
		return err
	}

	s.logger.Info("listing persisted in memory store",
		"event", "memory_create_listing",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"collection", listing.Collection,
		"token_id", listing.TokenID,
		"seller", listing.Seller,
	)
	return nil
}

func (s *Store) UpdateListingPrice(
	_ context.Context,
	key entities.TokenKey,
	price decimal.Decimal,
	updatedAt time.Time,
	event ports.ItemListedEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[key]
	if !ok {
		return domainerrors.ErrNotListed
	}
	previous := listing
	listing.Price = price
	listing.UpdatedAt = updatedAt.UTC()
	s.listings[key] = listing
	if err := s.appendOutboxLocked(listedEnvelope(event)); err != nil {
		s.listings[key] = previous
		return err
	}
	return nil
}

func (s *Store) DeleteListing(_ context.Context, key entities.TokenKey, event ports.ItemCanceledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[key]
	if !ok {
		return domainerrors.ErrNotListed
	}
	delete(s.listings, key)
	if err := s.appendOutboxLocked(canceledEnvelope(event)); err != nil {
		s.listings[key] = listing
		return err
	}
	return nil
}

// CompleteSale applies the sale's effects (listing gone, seller credited,
// outbox row written) inside the critical section, then runs settle outside
// it. Running settle unlocked is what lets a malicious transfer hook re-enter
// the marketplace and find the listing already deleted. A settle error
// reverses every effect.
func (s *Store) CompleteSale(
	ctx context.Context,
	sale entities.Sale,
	event ports.ItemBoughtEvent,
	settle func(context.Context) error,
) error {
	s.mu.Lock()
	listing, ok := s.listings[sale.Key()]
	if !ok {
		s.mu.Unlock()
		return domainerrors.ErrNotListed
	}
	// Stored state is authoritative for the credit amount.
	credit := listing.Price
	delete(s.listings, sale.Key())
	s.earnings[listing.Seller] = s.earnings[listing.Seller].Add(credit)
	if err := s.appendOutboxLocked(boughtEnvelope(event)); err != nil {
		s.listings[sale.Key()] = listing
		s.earnings[listing.Seller] = s.earnings[listing.Seller].Sub(credit)
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if err := settle(ctx); err != nil {
		s.mu.Lock()
		s.listings[sale.Key()] = listing
		s.earnings[listing.Seller] = s.earnings[listing.Seller].Sub(credit)
		s.removeOutboxLocked(event.EventID)
		s.mu.Unlock()

		s.logger.Warn("sale rolled back after settlement failure",
			"event", "memory_complete_sale_rolled_back",
			"module", "trading/nft-marketplace",
			"layer", "adapter",
			"collection", sale.Collection,
			"token_id", sale.TokenID,
			"error", err.Error(),
		)
		return err
	}

	s.logger.Info("sale persisted in memory store",
		"event", "memory_complete_sale",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"collection", sale.Collection,
		"token_id", sale.TokenID,
		"buyer", sale.Buyer,
		"seller", listing.Seller,
		"price", credit.String(),
	)
	return nil
}

func (s *Store) GetEarnings(_ context.Context, seller string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earnings[seller], nil
}

// WithdrawAll zeroes the balance before payout runs, so a reentrant
// withdrawal issued from inside payout observes zero and fails with
// ErrNoEarnings instead of draining twice.
func (s *Store) WithdrawAll(
	ctx context.Context,
	seller string,
	payout func(context.Context, decimal.Decimal) error,
) (decimal.Decimal, error) {
	s.mu.Lock()
	amount := s.earnings[seller]
	if !amount.IsPositive() {
		s.mu.Unlock()
		return decimal.Zero, domainerrors.ErrNoEarnings
	}
	s.earnings[seller] = decimal.Zero
	s.mu.Unlock()

	if err := payout(ctx, amount); err != nil {
		s.mu.Lock()
		s.earnings[seller] = s.earnings[seller].Add(amount)
		s.mu.Unlock()
		return decimal.Zero, fmt.Errorf("%w: %v", domainerrors.ErrTransferFailed, err)
	}
	return amount, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mkt-%d", value), nil
}

// OutboxEvents exposes the full outbox for test inspection.
func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

type envelopeInput struct {
	eventID      string
	eventType    string
	partitionKey string
	occurredAt   time.Time
	data         map[string]string
}

func (s *Store) appendOutboxLocked(input envelopeInput) error {
	data, err := json.Marshal(input.data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:          input.eventID,
		EventType:        input.eventType,
		OccurredAt:       input.occurredAt.UTC(),
		SourceService:    "nft-marketplace",
		SchemaVersion:    1,
		PartitionKeyPath: "token_key",
		PartitionKey:     input.partitionKey,
		Data:             data,
	})
	if err != nil {
		return err
	}
	s.outbox[input.eventID] = ports.OutboxMessage{
		OutboxID:     input.eventID,
		EventType:    input.eventType,
		PartitionKey: input.partitionKey,
		Payload:      payload,
		CreatedAt:    input.occurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, input.eventID)
	return nil
}

func (s *Store) removeOutboxLocked(eventID string) {
	delete(s.outbox, eventID)
	for i, id := range s.outboxOrder {
		if id == eventID {
			s.outboxOrder = append(s.outboxOrder[:i], s.outboxOrder[i+1:]...)
			break
		}
	}
}

func listedEnvelope(event ports.ItemListedEvent) envelopeInput {
	return envelopeInput{
		eventID:      event.EventID,
		eventType:    ports.EventTypeItemListed,
		partitionKey: event.PartitionKey,
		occurredAt:   event.OccurredAt,
		data: map[string]string{
			"seller":     event.Seller,
			"collection": event.Collection,
			"token_id":   event.TokenID,
			"price":      event.Price.String(),
		},
	}
}

func canceledEnvelope(event ports.ItemCanceledEvent) envelopeInput {
	return envelopeInput{
		eventID:      event.EventID,
		eventType:    ports.EventTypeItemCanceled,
		partitionKey: event.PartitionKey,
		occurredAt:   event.OccurredAt,
		data: map[string]string{
			"seller":     event.Seller,
			"collection": event.Collection,
			"token_id":   event.TokenID,
			"reason":     event.Reason,
		},
	}
}

func boughtEnvelope(event ports.ItemBoughtEvent) envelopeInput {
	return envelopeInput{
		eventID:      event.EventID,
		eventType:    ports.EventTypeItemBought,
		partitionKey: event.PartitionKey,
		occurredAt:   event.OccurredAt,
		data: map[string]string{
			"buyer":      event.Buyer,
			"seller":     event.Seller,
			"collection": event.Collection,
			"token_id":   event.TokenID,
			"price":      event.Price.String(),
		},
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

func listingSortKey(listing entities.Listing) string {
	return listing.Collection + ":" + listing.TokenID
}
