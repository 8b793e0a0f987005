package nftmarketplace

import (
	"log/slog"

	httpadapter "nftmarket/contexts/trading/nft-marketplace/adapters/http"
	"nftmarket/contexts/trading/nft-marketplace/adapters/memory"
	"nftmarket/contexts/trading/nft-marketplace/application/commands"
	"nftmarket/contexts/trading/nft-marketplace/application/queries"
	"nftmarket/contexts/trading/nft-marketplace/ports"
)

// DefaultMarketplaceAddress is the escrow identity used by the in-memory
// composition when no address is configured.
const DefaultMarketplaceAddress = "0x000000000000000000000000000000000000m4rk"

// Module is the composition surface for the trading marketplace. Runtime
// wiring should consume Handler; Store, Registry and Vault are exposed for
// tests and dev tooling.
type Module struct {
	Handler  httpadapter.Handler
	Store    *memory.Store
	Registry *memory.Registry
	Vault    *memory.Vault
}

type Dependencies struct {
	Listings    ports.ListingRepository
	Earnings    ports.EarningsLedger
	Registry    ports.AssetRegistry
	Vault       ports.ValueVault
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires marketplace use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	listItem := commands.ListItemUseCase{
		Listings:    deps.Listings,
		Registry:    deps.Registry,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	updateListing := commands.UpdateListingUseCase{
		Listings:    deps.Listings,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	cancelListing := commands.CancelListingUseCase{
		Listings:    deps.Listings,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	buyItem := commands.BuyItemUseCase{
		Listings:    deps.Listings,
		Registry:    deps.Registry,
		Vault:       deps.Vault,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	withdraw := commands.WithdrawEarningsUseCase{
		Earnings: deps.Earnings,
		Vault:    deps.Vault,
		Logger:   deps.Logger,
	}
	getListing := queries.GetListingUseCase{
		Listings: deps.Listings,
		Logger:   deps.Logger,
	}
	getEarnings := queries.GetEarningsUseCase{
		Earnings: deps.Earnings,
		Logger:   deps.Logger,
	}
	listListings := queries.ListListingsUseCase{
		Listings: deps.Listings,
		Logger:   deps.Logger,
	}

	handler := httpadapter.Handler{
		ListItem:      listItem,
		UpdateListing: updateListing,
		CancelListing: cancelListing,
		BuyItem:       buyItem,
		Withdraw:      withdraw,
		GetListing:    getListing,
		GetEarnings:   getEarnings,
		ListListings:  listListings,
		Logger:        deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule composes the module on the in-memory adapters. Used by
// tests and by local runs without a database.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	registry := memory.NewRegistry(DefaultMarketplaceAddress, logger)
	vault := memory.NewVault(logger)

	module := NewModule(Dependencies{
		Listings:    store,
		Earnings:    store,
		Registry:    registry,
		Vault:       vault,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	module.Registry = registry
	module.Vault = vault
	return module
}
