package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
	"github.com/spf13/viper"
)

// API exposes the client's observed state to a browser UI and relays
// user actions to the wallet service.
type API struct {
	Client *wallet.Client
	Store  *wallet.Store
}

func NewAPI(client *wallet.Client, store *wallet.Store) *API {
	return &API{
		Client: client,
		Store:  store,
	}
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expected := viper.GetString("wallet_api_key")
	if expected == "" || req.APIKey != expected {
		http.Error(w, "Unauthorized: invalid API key", http.StatusUnauthorized)
		return
	}

	token, err := IssueToken()
	if err != nil {
		log.Printf("Failed to issue token: %v", err)
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, LoginResponse{Token: token})
}

func (a *API) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.Store.Balance())
}

func (a *API) AddressHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"puzzlehash": a.Store.ReceivePuzzleHash(),
	})
}

func (a *API) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"txs": a.Store.Transactions(),
	})
}

func (a *API) ConnectionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"connections": a.Store.Peers(),
	})
}

func (a *API) SyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"syncing": a.Store.Syncing(),
		"height":  a.Store.Height(),
	})
}

func (a *API) SendTransactionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req SendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.Client.SendTransaction(req.PuzzleHash, req.Amount); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, StatusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, StatusResponse{Status: "submitted"})
}

func (a *API) FarmBlockHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req FarmBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.Client.FarmBlock(req.PuzzleHash); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, StatusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, StatusResponse{Status: "submitted"})
}

func (a *API) OpenConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req OpenConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.Client.OpenConnection(req.Host, req.Port); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, StatusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, StatusResponse{Status: "submitted"})
}

func (a *API) CloseConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	var req CloseConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.Client.CloseConnection(req.NodeID); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, StatusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, StatusResponse{Status: "submitted"})
}

// RefreshHandler re-issues the data queries so the next poll returns
// fresh state.
func (a *API) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	a.Client.RefreshBalance()
	a.Client.RefreshTransactions()
	a.Client.RefreshConnections()
	a.Client.RefreshSyncStatus()
	writeJSON(w, StatusResponse{Status: "submitted"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
