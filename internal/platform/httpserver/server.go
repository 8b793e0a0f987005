package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	nftmarketplace "nftmarket/contexts/trading/nft-marketplace"
	marketplacedomainerrors "nftmarket/contexts/trading/nft-marketplace/domain/errors"
	marketplacehttp "nftmarket/contexts/trading/nft-marketplace/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "nftmarket/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	marketplace nftmarketplace.Module

	devChainEnabled bool
}

type Options struct {
	// EnableDevChain exposes mint/approve/deposit endpoints backed by the
	// in-memory chain adapters. Local development only.
	EnableDevChain bool
}

func New(
	marketplace nftmarketplace.Module,
	logger *slog.Logger,
	addr string,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:             http.NewServeMux(),
		logger:          logger,
		addr:            addr,
		marketplace:     marketplace,
		devChainEnabled: opts.EnableDevChain,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /marketplace/listings", s.handleListListings)
	s.mux.HandleFunc("GET /marketplace/listings/{collection}/{token_id}", s.handleGetListing)
	s.mux.HandleFunc("POST /marketplace/listings", s.handleListItem)
	s.mux.HandleFunc("POST /marketplace/listings/{collection}/{token_id}/price", s.handleUpdateListing)
	s.mux.HandleFunc("POST /marketplace/listings/{collection}/{token_id}/cancel", s.handleCancelListing)
	s.mux.HandleFunc("POST /marketplace/listings/{collection}/{token_id}/buy", s.handleBuyItem)
	s.mux.HandleFunc("GET /marketplace/earnings/{seller}", s.handleGetEarnings)
	s.mux.HandleFunc("POST /marketplace/earnings/withdraw", s.handleWithdrawEarnings)

	if s.devChainEnabled {
		s.registerDevChainRoutes()
	}
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := marketplacehttp.ListListingsRequest{
		Collection: query.Get("collection"),
		Seller:     query.Get("seller"),
		Sort:       query.Get("sort"),
		Cursor:     query.Get("cursor"),
	}

	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeMarketplaceError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.marketplace.Handler.ListListingsHandler(r.Context(), req)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	resp, err := s.marketplace.Handler.GetListingHandler(
		r.Context(),
		r.PathValue("collection"),
		r.PathValue("token_id"),
	)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	var req marketplacehttp.ListItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.ListItemHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	var req marketplacehttp.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.UpdateListingHandler(
		r.Context(),
		caller,
		r.PathValue("collection"),
		r.PathValue("token_id"),
		req,
	)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.CancelListingHandler(
		r.Context(),
		caller,
		r.PathValue("collection"),
		r.PathValue("token_id"),
	)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	var req marketplacehttp.BuyItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.BuyItemHandler(
		r.Context(),
		caller,
		r.PathValue("collection"),
		r.PathValue("token_id"),
		req,
	)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEarnings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.marketplace.Handler.GetEarningsHandler(r.Context(), r.PathValue("seller"))
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawEarnings(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.WithdrawEarningsHandler(r.Context(), caller)
	if err != nil {
		writeMarketplaceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveWallet(w http.ResponseWriter, r *http.Request) (string, bool) {
	wallet := strings.TrimSpace(r.Header.Get("X-Wallet-Address"))
	if wallet == "" {
		writeMarketplaceError(w, http.StatusUnauthorized, "missing_wallet", "X-Wallet-Address header is required")
		return "", false
	}
	return wallet, true
}

func writeMarketplaceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketplacedomainerrors.ErrPriceMustBeAboveZero):
		writeMarketplaceError(w, http.StatusUnprocessableEntity, "price_must_be_above_zero", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrNotOwner):
		writeMarketplaceError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrNotApprovedForMarketplace):
		writeMarketplaceError(w, http.StatusConflict, "not_approved_for_marketplace", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrAlreadyListed):
		writeMarketplaceError(w, http.StatusConflict, "already_listed", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrNotListed):
		writeMarketplaceError(w, http.StatusNotFound, "not_listed", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrPriceNotMet):
		writeMarketplaceError(w, http.StatusPaymentRequired, "price_not_met", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrNoEarnings):
		writeMarketplaceError(w, http.StatusConflict, "no_earnings", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrTransferFailed):
		writeMarketplaceError(w, http.StatusBadGateway, "transfer_failed", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrInvalidListFilter):
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_list_filter", err.Error())
	case errors.Is(err, marketplacedomainerrors.ErrInvalidRequest):
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeMarketplaceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketplaceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, marketplacehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
