package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"nftmarket/internal/shared/native"
)

// Dev chain endpoints manipulate the in-memory registry and vault so a local
// stack can mint tokens, grant approvals and fund buyers without a real chain.
// They are registered only when the dev flag is on and the in-memory adapters
// are present.

type devMintRequest struct {
	Collection string `json:"collection"`
	Owner      string `json:"owner"`
}

type devMintResponse struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Owner      string `json:"owner"`
}

type devApproveRequest struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
}

type devDepositRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type devOwnerResponse struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Owner      string `json:"owner"`
}

type devBalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func (s *Server) registerDevChainRoutes() {
	if s.marketplace.Registry == nil || s.marketplace.Vault == nil {
		s.logger.Warn("dev chain endpoints requested without in-memory adapters",
			"event", "dev_chain_routes_skipped",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return
	}

	s.mux.HandleFunc("POST /dev/assets/mint", s.handleDevMint)
	s.mux.HandleFunc("POST /dev/assets/approve", s.handleDevApprove)
	s.mux.HandleFunc("GET /dev/assets/{collection}/{token_id}/owner", s.handleDevOwner)
	s.mux.HandleFunc("POST /dev/vault/deposit", s.handleDevDeposit)
	s.mux.HandleFunc("GET /dev/vault/{account}/balance", s.handleDevBalance)
}

func (s *Server) handleDevMint(w http.ResponseWriter, r *http.Request) {
	var req devMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Collection) == "" || strings.TrimSpace(req.Owner) == "" {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_request", "collection and owner are required")
		return
	}

	tokenID, err := s.marketplace.Registry.Mint(r.Context(), req.Collection, req.Owner)
	if err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "mint_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, devMintResponse{
		Collection: strings.ToLower(strings.TrimSpace(req.Collection)),
		TokenID:    tokenID,
		Owner:      strings.ToLower(strings.TrimSpace(req.Owner)),
	})
}

func (s *Server) handleDevApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.resolveWallet(w, r)
	if !ok {
		return
	}

	var req devApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	err := s.marketplace.Registry.Approve(
		r.Context(),
		caller,
		req.Collection,
		req.TokenID,
		s.marketplace.Registry.MarketplaceAddress(),
	)
	if err != nil {
		writeMarketplaceError(w, http.StatusForbidden, "approve_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

func (s *Server) handleDevOwner(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	tokenID := r.PathValue("token_id")

	owner, err := s.marketplace.Registry.OwnerOf(r.Context(), collection, tokenID)
	if err != nil {
		writeMarketplaceError(w, http.StatusNotFound, "unknown_asset", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, devOwnerResponse{
		Collection: strings.ToLower(strings.TrimSpace(collection)),
		TokenID:    tokenID,
		Owner:      owner,
	})
}

func (s *Server) handleDevDeposit(w http.ResponseWriter, r *http.Request) {
	var req devDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	amount, err := native.Parse(req.Amount)
	if err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "invalid_amount", err.Error())
		return
	}
	if err := s.marketplace.Vault.Deposit(r.Context(), req.Account, amount); err != nil {
		writeMarketplaceError(w, http.StatusBadRequest, "deposit_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, devBalanceResponse{
		Account: strings.ToLower(strings.TrimSpace(req.Account)),
		Balance: native.Format(s.marketplace.Vault.Balance(req.Account)),
	})
}

func (s *Server) handleDevBalance(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	writeJSON(w, http.StatusOK, devBalanceResponse{
		Account: strings.ToLower(strings.TrimSpace(account)),
		Balance: native.Format(s.marketplace.Vault.Balance(account)),
	})
}
