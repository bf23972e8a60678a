package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/castlebay/ledgerlink/internal/auth/token"
	"github.com/castlebay/ledgerlink/internal/connection"
	"github.com/castlebay/ledgerlink/internal/db/models"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// connectionView is the externally visible shape of a connection. Token
// secrets never leave the service.
type connectionView struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Provider   string    `json:"provider"`
	BusinessID string    `json:"business_id,omitempty"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

func viewOf(rec *models.Connection) connectionView {
	return connectionView{
		ID:         rec.ID,
		TenantID:   rec.TenantID,
		Provider:   rec.Provider,
		BusinessID: rec.BusinessID,
		Status:     rec.Status,
		ExpiresAt:  rec.ExpiresAt,
		LastUsedAt: rec.LastUsedAt,
	}
}

// ConnectionsHandler lists all provider connections.
func ConnectionsHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var recs []models.Connection
		if err := db.WithContext(r.Context()).Order("tenant_id").Find(&recs).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list connections")
			return
		}

		views := make([]connectionView, 0, len(recs))
		for i := range recs {
			views = append(views, viewOf(&recs[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"connections": views})
	}
}

// BusinessesHandler lists the provider businesses the tenant's grant can
// access, so a business can be selected on a pending connection.
func BusinessesHandler(client ProviderClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		resp, err := client.ListBusinesses(r.Context(), tenantID)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		relayResponse(w, resp.StatusCode, resp.Body)
	}
}

// SelectBusinessHandler binds a business context to the tenant's connection,
// activating it.
func SelectBusinessHandler(store connection.Store, providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		var req struct {
			BusinessID string `json:"business_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BusinessID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "business_id is required")
			return
		}

		rec, err := store.Get(r.Context(), tenantID, providerName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load connection")
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "not_connected", "Tenant has no provider connection")
			return
		}

		rec.BusinessID = req.BusinessID
		rec.Status = models.StatusActive
		saved, err := store.Upsert(r.Context(), rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to save connection")
			return
		}

		log.Printf("✅ Tenant %s selected business %s", tenantID, req.BusinessID)
		writeJSON(w, http.StatusOK, viewOf(saved))
	}
}

// RefreshConnectionHandler forces a token refresh for the tenant.
func RefreshConnectionHandler(store connection.Store, mgr *token.Manager, providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		rec, err := store.Get(r.Context(), tenantID, providerName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load connection")
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "not_connected", "Tenant has no provider connection")
			return
		}

		updated, err := mgr.Refresh(r.Context(), rec)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(updated))
	}
}
