package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/castlebay/ledgerlink/internal/api/handlers"
	"github.com/castlebay/ledgerlink/internal/api/middleware"
	"github.com/castlebay/ledgerlink/internal/apiclient"
	"github.com/castlebay/ledgerlink/internal/auth/provider"
	"github.com/castlebay/ledgerlink/internal/auth/token"
	"github.com/castlebay/ledgerlink/internal/config"
	"github.com/castlebay/ledgerlink/internal/connection"
	"github.com/castlebay/ledgerlink/internal/db"
	"github.com/castlebay/ledgerlink/internal/logging"
	"github.com/castlebay/ledgerlink/internal/version"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	configPath := flag.String("config", "ledgerlink.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	store := connection.NewStore(database)
	tokenManager := token.NewManager(store, &cfg.Provider)
	client := apiclient.NewClient(tokenManager, &cfg.Provider)

	// Create router
	r := chi.NewRouter()
	r.Use(logging.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// OAuth connect flow (browser-driven, no API key)
	r.Get("/connect/login", provider.HandleLogin(&cfg.Provider))
	r.Get("/connect/callback", provider.HandleCallback(store, &cfg.Provider))

	// Service API (API key required)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(database))

		r.Get("/version", handlers.VersionHandler())

		// Service API key management
		r.Get("/config/apikey", handlers.GetAPIKeyHandler(database))
		r.Post("/config/apikey/regenerate", handlers.RegenerateAPIKeyHandler(database))

		// Connection management
		r.Get("/connections", handlers.ConnectionsHandler(database))
		r.Get("/connections/{tenantID}/businesses", handlers.BusinessesHandler(client))
		r.Post("/connections/{tenantID}/business", handlers.SelectBusinessHandler(store, cfg.Provider.Name))
		r.Post("/connections/{tenantID}/refresh", handlers.RefreshConnectionHandler(store, tokenManager, cfg.Provider.Name))

		// Pass-through business documents
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			for _, resource := range []string{
				handlers.ResourceInvoices,
				handlers.ResourceQuotes,
				handlers.ResourceContacts,
			} {
				r.Get("/"+resource, handlers.ListDocumentsHandler(client, resource))
				r.Post("/"+resource, handlers.CreateDocumentHandler(client, resource))
				r.Get("/"+resource+"/{docID}", handlers.GetDocumentHandler(client, resource))
				r.Put("/"+resource+"/{docID}", handlers.UpdateDocumentHandler(client, resource))
			}
		})
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("🚀 LedgerLink %s listening on http://%s (provider: %s)", version.Version, addr, cfg.Provider.Name)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
