package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/castlebay/ledgerlink/internal/apiclient"
	"github.com/go-chi/chi/v5"
)

// stubClient scripts one ProviderClient outcome and records the call.
type stubClient struct {
	resp *apiclient.Response
	err  error

	gotTenant string
	gotMethod string
	gotPath   string
	gotQuery  url.Values
	gotBody   any
}

func (s *stubClient) Request(ctx context.Context, tenantID, method, path string, query url.Values, body any) (*apiclient.Response, error) {
	s.gotTenant = tenantID
	s.gotMethod = method
	s.gotPath = path
	s.gotQuery = query
	s.gotBody = body
	return s.resp, s.err
}

func (s *stubClient) ListBusinesses(ctx context.Context, tenantID string) (*apiclient.Response, error) {
	s.gotTenant = tenantID
	s.gotMethod = http.MethodGet
	s.gotPath = "/businesses"
	return s.resp, s.err
}

func serveDocuments(client ProviderClient, method, target string, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/tenants/{tenantID}", func(r chi.Router) {
		r.Get("/invoices", ListDocumentsHandler(client, ResourceInvoices))
		r.Post("/invoices", CreateDocumentHandler(client, ResourceInvoices))
		r.Get("/invoices/{docID}", GetDocumentHandler(client, ResourceInvoices))
		r.Put("/invoices/{docID}", UpdateDocumentHandler(client, ResourceInvoices))
	})

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListDocuments_RelaysProviderResponse(t *testing.T) {
	client := &stubClient{resp: &apiclient.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"invoices":[{"id":"inv-1"}]}`),
	}}

	rec := serveDocuments(client, http.MethodGet, "/api/tenants/tenant-1/invoices?page=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "inv-1") {
		t.Fatalf("expected provider body relayed, got %s", rec.Body.String())
	}
	if client.gotTenant != "tenant-1" {
		t.Fatalf("expected tenant-1, got %q", client.gotTenant)
	}
	if client.gotPath != "/invoices" {
		t.Fatalf("expected /invoices path, got %q", client.gotPath)
	}
	if client.gotQuery.Get("page") != "3" {
		t.Fatalf("expected forwarded query, got %v", client.gotQuery)
	}
}

func TestCreateDocument_ForwardsBody(t *testing.T) {
	client := &stubClient{resp: &apiclient.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte(`{"id":"inv-9"}`),
	}}

	rec := serveDocuments(client, http.MethodPost, "/api/tenants/tenant-1/invoices", `{"number":"INV-9"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	body, ok := client.gotBody.(map[string]any)
	if !ok || body["number"] != "INV-9" {
		t.Fatalf("expected decoded body forwarded, got %#v", client.gotBody)
	}
}

func TestCreateDocument_RejectsInvalidJSON(t *testing.T) {
	client := &stubClient{}
	rec := serveDocuments(client, http.MethodPost, "/api/tenants/tenant-1/invoices", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if client.gotTenant != "" {
		t.Fatal("expected no provider call for invalid body")
	}
}

func TestUpdateDocument_TargetsDocumentPath(t *testing.T) {
	client := &stubClient{resp: &apiclient.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"id":"inv-1"}`),
	}}

	rec := serveDocuments(client, http.MethodPut, "/api/tenants/tenant-1/invoices/inv-1", `{"status":"PAID"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if client.gotPath != "/invoices/inv-1" {
		t.Fatalf("expected document path, got %q", client.gotPath)
	}
	if client.gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %q", client.gotMethod)
	}
}

func TestDocumentHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantInBody string
	}{
		{
			name:       "no business selected",
			err:        fmt.Errorf("tenant tenant-1: %w", apiclient.ErrNoBusinessSelected),
			wantStatus: http.StatusConflict,
			wantInBody: "business_selection_required",
		},
		{
			name:       "not authenticated",
			err:        fmt.Errorf("%w: no record", apiclient.ErrUnauthenticated),
			wantStatus: http.StatusUnauthorized,
			wantInBody: "not_connected",
		},
		{
			name:       "provider error passes through",
			err:        &apiclient.APIError{StatusCode: http.StatusForbidden, Body: []byte(`{"error":"insufficient_scope"}`)},
			wantStatus: http.StatusForbidden,
			wantInBody: "insufficient_scope",
		},
		{
			name:       "transport failure",
			err:        &apiclient.TransportError{Err: fmt.Errorf("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantInBody: "provider_unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{err: tt.err}
			rec := serveDocuments(client, http.MethodGet, "/api/tenants/tenant-1/invoices", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Fatalf("expected %q in body, got %s", tt.wantInBody, rec.Body.String())
			}
		})
	}
}
