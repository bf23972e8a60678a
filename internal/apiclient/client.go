// Package apiclient issues authenticated calls against the accounting
// provider's business API. Token mechanics stay invisible to callers: the
// client fetches a valid token, attaches the auth and business-context
// headers, and retries exactly once after a 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/castlebay/ledgerlink/internal/auth/token"
	"github.com/castlebay/ledgerlink/internal/config"
	"github.com/castlebay/ledgerlink/internal/db/models"
)

const requestTimeout = 30 * time.Second

// businessesPath is the provider's bearer-only resource listing the
// businesses a grant can operate against.
const businessesPath = "/businesses"

// TokenManager is the slice of the token manager the client depends on.
type TokenManager interface {
	ConnectionWithValidToken(ctx context.Context, tenantID string) (*models.Connection, error)
	Refresh(ctx context.Context, rec *models.Connection) (*models.Connection, error)
}

// Response is a decoded 2xx answer from the business API.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs business-API calls on behalf of a tenant.
type Client struct {
	httpClient     *http.Client
	tokens         TokenManager
	baseURL        string
	businessHeader string
}

// NewClient creates a client for the configured provider.
func NewClient(tokens TokenManager, pc *config.ProviderConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		tokens:         tokens,
		baseURL:        strings.TrimRight(pc.APIBaseURL, "/"),
		businessHeader: pc.BusinessHeader,
	}
}

// Request performs one logical call: valid-token fetch, header attachment,
// send, and a single refresh-and-resend after a 401. Any status ≥ 400 after
// that becomes an *APIError; network failures become *TransportError and are
// not retried.
func (c *Client) Request(ctx context.Context, tenantID, method, path string, query url.Values, body any) (*Response, error) {
	return c.do(ctx, tenantID, method, path, query, body, true)
}

// ListBusinesses fetches the businesses the tenant's grant can access. This
// is the one call that is valid before a business has been selected, so it
// goes out with the bearer token alone.
func (c *Client) ListBusinesses(ctx context.Context, tenantID string) (*Response, error) {
	return c.do(ctx, tenantID, http.MethodGet, businessesPath, nil, nil, false)
}

func (c *Client) do(ctx context.Context, tenantID, method, path string, query url.Values, body any, requireBusiness bool) (*Response, error) {
	rec, err := c.tokens.ConnectionWithValidToken(ctx, tenantID)
	if err != nil {
		if errors.Is(err, token.ErrNotConnected) || errors.Is(err, token.ErrNoAccessToken) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return nil, err
	}

	// Data-bearing calls are meaningless without a business context; fail
	// before touching the network.
	if requireBusiness && rec.BusinessID == "" {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNoBusinessSelected)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := c.send(ctx, rec, method, path, query, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		// The token died between the freshness check and the call, or was
		// revoked out of band. Refresh unconditionally and resend once.
		log.Printf("⚠️ 401 from provider for tenant %s, refreshing and retrying once", tenantID)
		rec, err = c.tokens.Refresh(ctx, rec)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, rec, method, path, query, payload)
		if err != nil {
			return nil, err
		}
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: data}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Get issues a GET request for the tenant.
func (c *Client) Get(ctx context.Context, tenantID, path string, query url.Values) (*Response, error) {
	return c.Request(ctx, tenantID, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body for the tenant.
func (c *Client) Post(ctx context.Context, tenantID, path string, body any) (*Response, error) {
	return c.Request(ctx, tenantID, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON body for the tenant.
func (c *Client) Put(ctx context.Context, tenantID, path string, body any) (*Response, error) {
	return c.Request(ctx, tenantID, http.MethodPut, path, nil, body)
}

func (c *Client) send(ctx context.Context, rec *models.Connection, method, path string, query url.Values, payload []byte) (*http.Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	if rec.BusinessID != "" {
		req.Header.Set(c.businessHeader, rec.BusinessID)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
