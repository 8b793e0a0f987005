package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	application "nftmarket/contexts/trading/nft-marketplace/application"
	"nftmarket/contexts/trading/nft-marketplace/domain/entities"
)

var (
	ErrUnknownAsset       = errors.New("unknown asset")
	ErrTransferNotAllowed = errors.New("transfer sender does not hold the asset")
	ErrApprovalNotByOwner = errors.New("approval caller does not own the asset")
)

// Registry is an in-memory asset registry standing in for the external
// ownership contract. The marketplace only consumes its AssetRegistry port;
// Mint and Approve exist for the dev runtime and tests, where this process
// plays the chain too.
type Registry struct {
	mu          sync.Mutex
	marketplace string
	owners      map[entities.TokenKey]string
	approvals   map[entities.TokenKey]string
	nextToken   map[string]uint64
	logger      *slog.Logger
}

func NewRegistry(marketplace string, logger *slog.Logger) *Registry {
	return &Registry{
		marketplace: entities.NormalizeAddress(marketplace),
		owners:      make(map[entities.TokenKey]string),
		approvals:   make(map[entities.TokenKey]string),
		nextToken:   make(map[string]uint64),
		logger:      application.ResolveLogger(logger),
	}
}

// MarketplaceAddress is the operator identity approvals are checked against.
func (r *Registry) MarketplaceAddress() string {
	return r.marketplace
}

// Mint creates the next token of a collection and assigns it to the owner.
func (r *Registry) Mint(_ context.Context, collection string, to string) (string, error) {
	collection = entities.NormalizeAddress(collection)
	to = entities.NormalizeAddress(to)
	if collection == "" || to == "" {
		return "", ErrUnknownAsset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tokenID := fmt.Sprintf("%d", r.nextToken[collection])
	r.nextToken[collection]++
	r.owners[entities.TokenKey{Collection: collection, TokenID: tokenID}] = to

	r.logger.Info("asset minted",
		"event", "registry_asset_minted",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"collection", collection,
		"token_id", tokenID,
		"owner", to,
	)
	return tokenID, nil
}

func (r *Registry) OwnerOf(_ context.Context, collection string, tokenID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[entities.TokenKey{Collection: entities.NormalizeAddress(collection), TokenID: tokenID}]
	if !ok {
		return "", ErrUnknownAsset
	}
	return owner, nil
}

// Approve grants one operator transfer rights over the asset, replacing any
// previous approval. Only the current owner may approve.
func (r *Registry) Approve(_ context.Context, caller string, collection string, tokenID string, operator string) error {
	key := entities.TokenKey{Collection: entities.NormalizeAddress(collection), TokenID: tokenID}
	caller = entities.NormalizeAddress(caller)

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[key]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != caller {
		return ErrApprovalNotByOwner
	}
	r.approvals[key] = entities.NormalizeAddress(operator)
	return nil
}

func (r *Registry) IsApprovedForMarketplace(_ context.Context, collection string, tokenID string) (bool, error) {
	key := entities.TokenKey{Collection: entities.NormalizeAddress(collection), TokenID: tokenID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[key]; !ok {
		return false, ErrUnknownAsset
	}
	return r.approvals[key] == r.marketplace, nil
}

// Transfer moves the asset and clears its approval, the way ERC-721
// transfers reset per-token approvals.
func (r *Registry) Transfer(_ context.Context, from string, to string, collection string, tokenID string) error {
	key := entities.TokenKey{Collection: entities.NormalizeAddress(collection), TokenID: tokenID}
	from = entities.NormalizeAddress(from)
	to = entities.NormalizeAddress(to)

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[key]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return ErrTransferNotAllowed
	}
	r.owners[key] = to
	delete(r.approvals, key)

	r.logger.Info("asset transferred",
		"event", "registry_asset_transferred",
		"module", "trading/nft-marketplace",
		"layer", "adapter",
		"collection", key.Collection,
		"token_id", key.TokenID,
		"from", from,
		"to", to,
	)
	return nil
}
