package provider

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/castlebay/ledgerlink/internal/config"
	"golang.org/x/oauth2"
)

func newStateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// redirectURL reconstructs the externally visible callback URL from the
// incoming request so the flow works behind a proxy without configuration.
func redirectURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/connect/callback", scheme, r.Host)
}

// HandleLogin starts the OAuth flow for a tenant by redirecting to the
// provider's consent page. The tenant is carried through the state token.
func HandleLogin(pc *config.ProviderConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant")
		if tenantID == "" {
			http.Error(w, "Missing tenant parameter", http.StatusBadRequest)
			return
		}

		state := newStateToken()
		rememberState(state, tenantID)

		oc := OAuthConfig(pc, redirectURL(r))
		url := oc.AuthCodeURL(state, oauth2.AccessTypeOffline)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
