package provider

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/castlebay/ledgerlink/internal/config"
	"github.com/castlebay/ledgerlink/internal/connection"
	"github.com/castlebay/ledgerlink/internal/db/models"
)

// HandleCallback processes the OAuth callback from the provider. A successful
// code exchange creates (or re-authorizes) the tenant's connection. The
// connection stays in pending_business_selection until a business is picked.
func HandleCallback(store connection.Store, pc *config.ProviderConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		tenantID, ok := consumeState(state)
		if !ok {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		oc := OAuthConfig(pc, redirectURL(r))
		tok, err := oc.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		rec, err := store.Get(r.Context(), tenantID, pc.Name)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load connection: %v", err), http.StatusInternalServerError)
			return
		}
		if rec == nil {
			rec = &models.Connection{
				TenantID: tenantID,
				Provider: pc.Name,
			}
		}

		rec.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			rec.RefreshToken = tok.RefreshToken
		}
		rec.ExpiresAt = tok.Expiry
		if rec.ExpiresAt.IsZero() {
			// Grant response omitted expires_in; assume a short lifetime so
			// the first use refreshes.
			rec.ExpiresAt = time.Now().Add(300 * time.Second)
		}
		rec.LastUsedAt = time.Now()
		// Re-authorizing keeps a previously selected business active.
		if rec.BusinessID != "" {
			rec.Status = models.StatusActive
		} else {
			rec.Status = models.StatusPendingBusiness
		}

		if _, err := store.Upsert(r.Context(), rec); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save connection: %v", err), http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Tenant %s connected to %s (status: %s)", tenantID, pc.Name, rec.Status)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"tenant_id": tenantID,
			"provider":  pc.Name,
			"status":    rec.Status,
		})
	}
}
