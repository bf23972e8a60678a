package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Document resources proxied to the provider. Each maps 1:1 onto a provider
// collection; the provider's JSON shapes pass through untouched.
const (
	ResourceInvoices = "invoices"
	ResourceQuotes   = "quotes"
	ResourceContacts = "contacts"
)

// ListDocumentsHandler proxies GET /api/tenants/{tenantID}/<resource>,
// forwarding the caller's query string (paging, filters) to the provider.
func ListDocumentsHandler(client ProviderClient, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		resp, err := client.Request(r.Context(), tenantID, http.MethodGet, "/"+resource, r.URL.Query(), nil)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		relayResponse(w, resp.StatusCode, resp.Body)
	}
}

// GetDocumentHandler proxies GET /api/tenants/{tenantID}/<resource>/{docID}.
func GetDocumentHandler(client ProviderClient, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")
		docID := chi.URLParam(r, "docID")

		resp, err := client.Request(r.Context(), tenantID, http.MethodGet, "/"+resource+"/"+docID, nil, nil)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		relayResponse(w, resp.StatusCode, resp.Body)
	}
}

// CreateDocumentHandler proxies POST /api/tenants/{tenantID}/<resource>.
func CreateDocumentHandler(client ProviderClient, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		body, ok := decodeBody(w, r)
		if !ok {
			return
		}

		resp, err := client.Request(r.Context(), tenantID, http.MethodPost, "/"+resource, nil, body)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		relayResponse(w, resp.StatusCode, resp.Body)
	}
}

// UpdateDocumentHandler proxies PUT /api/tenants/{tenantID}/<resource>/{docID}.
func UpdateDocumentHandler(client ProviderClient, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")
		docID := chi.URLParam(r, "docID")

		body, ok := decodeBody(w, r)
		if !ok {
			return
		}

		resp, err := client.Request(r.Context(), tenantID, http.MethodPut, "/"+resource+"/"+docID, nil, body)
		if err != nil {
			writeProviderError(r.Context(), w, err)
			return
		}
		relayResponse(w, resp.StatusCode, resp.Body)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object")
		return nil, false
	}
	return body, true
}

func relayResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
