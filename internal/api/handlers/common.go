package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/castlebay/ledgerlink/internal/apiclient"
	"github.com/castlebay/ledgerlink/internal/auth/token"
	"github.com/castlebay/ledgerlink/internal/logging"
)

// ProviderClient is the slice of the API client the pass-through handlers
// consume.
type ProviderClient interface {
	Request(ctx context.Context, tenantID, method, path string, query url.Values, body any) (*apiclient.Response, error)
	ListBusinesses(ctx context.Context, tenantID string) (*apiclient.Response, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeProviderError maps the client's typed failures onto actionable HTTP
// responses: reconnect, pick a business, or a provider-side failure.
func writeProviderError(ctx context.Context, w http.ResponseWriter, err error) {
	reqID := logging.GetRequestID(ctx)

	var apiErr *apiclient.APIError
	var transportErr *apiclient.TransportError
	var refreshErr *token.RefreshError

	switch {
	case errors.Is(err, apiclient.ErrNoBusinessSelected):
		writeError(w, http.StatusConflict, "business_selection_required",
			"Connection is authenticated but no business is selected yet")
	case errors.Is(err, apiclient.ErrUnauthenticated),
		errors.Is(err, token.ErrNotConnected),
		errors.Is(err, token.ErrNoAccessToken),
		errors.Is(err, token.ErrNoRefreshToken):
		writeError(w, http.StatusUnauthorized, "not_connected",
			"Tenant is not connected to the provider; authorization is required")
	case errors.As(err, &refreshErr):
		writeError(w, http.StatusUnauthorized, "token_refresh_failed",
			"Provider rejected the token refresh; reconnect the tenant")
	case errors.As(err, &apiErr):
		// Pass the provider's answer through untouched
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.StatusCode)
		w.Write(apiErr.Body)
	case errors.As(err, &transportErr):
		writeError(w, http.StatusBadGateway, "provider_unreachable",
			"Could not reach the provider; try again")
	default:
		log.Printf("❌ [%s] Unexpected provider call failure: %v", reqID, err)
		writeError(w, http.StatusInternalServerError, "internal_error",
			"Unexpected failure while calling the provider")
	}
}
