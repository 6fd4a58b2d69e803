package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/viper"
)

// Routes registers all API endpoints on a new mux. The read endpoints
// only serve the store, they never block on the wallet service.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", ApplyMiddleware(a.LoginHandler, a.CORSMiddleware))

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return ApplyMiddleware(h, a.JWTMiddleware, a.CORSMiddleware)
	}

	mux.HandleFunc("/balance", protected(a.BalanceHandler))
	mux.HandleFunc("/address", protected(a.AddressHandler))
	mux.HandleFunc("/transactions", protected(a.TransactionsHandler))
	mux.HandleFunc("/connections", protected(a.ConnectionsHandler))
	mux.HandleFunc("/sync-status", protected(a.SyncStatusHandler))
	mux.HandleFunc("/send-transaction", protected(a.SendTransactionHandler))
	mux.HandleFunc("/farm-block", protected(a.FarmBlockHandler))
	mux.HandleFunc("/open-connection", protected(a.OpenConnectionHandler))
	mux.HandleFunc("/close-connection", protected(a.CloseConnectionHandler))
	mux.HandleFunc("/refresh", protected(a.RefreshHandler))

	return mux
}

// StartServer serves the API on the configured port. Blocks until the
// listener fails.
func (a *API) StartServer() error {
	if err := EnsureJWTKey(); err != nil {
		return fmt.Errorf("initializing JWT key: %w", err)
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("api_port"))
	log.Printf("Starting wallet console API on %s", addr)

	if viper.GetBool("use_https") {
		return http.ListenAndServeTLS(addr, viper.GetString("cert_file"), viper.GetString("key_file"), a.Routes())
	}
	return http.ListenAndServe(addr, a.Routes())
}
