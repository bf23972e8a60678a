// Package token owns the access-token lifecycle for provider connections:
// expiry policy, on-demand refresh, and persistence of the refreshed record.
package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/castlebay/ledgerlink/internal/auth/provider"
	"github.com/castlebay/ledgerlink/internal/config"
	"github.com/castlebay/ledgerlink/internal/connection"
	"github.com/castlebay/ledgerlink/internal/db/models"
	"golang.org/x/oauth2"
)

const (
	// ExpiryBuffer absorbs the latency between the freshness check and the
	// request the token is used for.
	ExpiryBuffer = 30 * time.Second

	// defaultTokenLifetime applies when the token response omits expires_in.
	defaultTokenLifetime = 300 * time.Second

	// refreshTimeout bounds the token-endpoint exchange.
	refreshTimeout = 30 * time.Second
)

// Manager refreshes connection tokens on demand. Refreshes for the same
// tenant are serialized with a per-tenant lock so concurrent callers never
// send two competing refresh-token exchanges to the provider.
type Manager struct {
	store    connection.Store
	provider *config.ProviderConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a token manager backed by the given connection store.
func NewManager(store connection.Store, pc *config.ProviderConfig) *Manager {
	return &Manager{
		store:    store,
		provider: pc,
		locks:    make(map[string]*sync.Mutex),
	}
}

// IsExpired reports whether the record's access token must be refreshed
// before use. A zero ExpiresAt means the lifetime is unknown and the token is
// treated as expired.
func IsExpired(rec *models.Connection) bool {
	if rec.ExpiresAt.IsZero() {
		return true
	}
	return !time.Now().Add(ExpiryBuffer).Before(rec.ExpiresAt)
}

// ConnectionWithValidToken loads the tenant's connection and guarantees the
// returned record carries an access token that was valid at return time.
func (m *Manager) ConnectionWithValidToken(ctx context.Context, tenantID string) (*models.Connection, error) {
	rec, err := m.store.Get(ctx, tenantID, m.provider.Name)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNotConnected)
	}
	if rec.AccessToken == "" {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrNoAccessToken)
	}
	if !IsExpired(rec) {
		return rec, nil
	}
	return m.Refresh(ctx, rec)
}

// Refresh exchanges the record's refresh token for a new access token and
// persists the result. The exchange is unconditional: callers invoke it
// either because IsExpired said so or because the provider just answered 401
// with a token the expiry check had passed.
func (m *Manager) Refresh(ctx context.Context, rec *models.Connection) (*models.Connection, error) {
	lock := m.tenantLock(rec.TenantID)
	lock.Lock()
	defer lock.Unlock()

	// A concurrent caller may have finished a refresh while we waited on the
	// lock. If the stored token already differs from the one we hold and is
	// still fresh, use it instead of burning another exchange.
	cur, err := m.store.Get(ctx, rec.TenantID, rec.Provider)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		if cur.AccessToken != rec.AccessToken && !IsExpired(cur) {
			return cur, nil
		}
		rec = cur
	}

	if rec.RefreshToken == "" {
		return nil, fmt.Errorf("tenant %s: %w", rec.TenantID, ErrNoRefreshToken)
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	refreshCtx = context.WithValue(refreshCtx, oauth2.HTTPClient, &http.Client{Timeout: refreshTimeout})

	oc := provider.OAuthConfig(m.provider, "")
	src := oc.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: rec.RefreshToken})

	newTok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if !errors.As(err, &re) {
			// The endpoint never answered; the grant may still be good.
			// Leave the record untouched and let a later call retry.
			log.Printf("⏳ Transient token refresh failure for tenant %s: %v", rec.TenantID, err)
			return nil, fmt.Errorf("token refresh for tenant %s: %w", rec.TenantID, err)
		}

		log.Printf("❌ Token refresh rejected for tenant %s: %v", rec.TenantID, err)

		// Persist the rejection so subsequent calls fail fast with a clear
		// diagnostic instead of re-attempting the same exchange.
		rec.Status = models.StatusRefreshFailed
		if _, perr := m.store.Upsert(context.WithoutCancel(ctx), rec); perr != nil {
			log.Printf("⚠️ Failed to persist refresh failure for tenant %s: %v", rec.TenantID, perr)
		}
		return nil, &RefreshError{Detail: refreshDetail(err), Err: err}
	}

	rec.AccessToken = newTok.AccessToken
	// Providers may omit the refresh token, meaning "keep the old one".
	if newTok.RefreshToken != "" && newTok.RefreshToken != rec.RefreshToken {
		log.Printf("🔄 Rotating refresh token for tenant %s", rec.TenantID)
		rec.RefreshToken = newTok.RefreshToken
	}
	rec.ExpiresAt = newTok.Expiry
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = time.Now().Add(defaultTokenLifetime)
	}
	rec.LastUsedAt = time.Now()
	if rec.BusinessID != "" {
		rec.Status = models.StatusActive
	} else {
		rec.Status = models.StatusPendingBusiness
	}

	saved, err := m.store.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Refreshed token for tenant %s (expires: %s, token: %s)",
		saved.TenantID, saved.ExpiresAt.Format(time.RFC3339), maskToken(saved.AccessToken))
	return saved, nil
}

func (m *Manager) tenantLock(tenantID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[tenantID] = lock
	}
	return lock
}

// refreshDetail extracts the provider's error body when the failure came from
// the token endpoint itself, rather than the transport.
func refreshDetail(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && len(re.Body) > 0 {
		return string(re.Body)
	}
	return err.Error()
}

func maskToken(t string) string {
	if len(t) < 20 {
		return t
	}
	return "..." + t[len(t)-12:]
}
