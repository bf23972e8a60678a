// Package provider implements the OAuth2 connect flow against the accounting
// provider: the authorization redirect, the callback code exchange, and the
// oauth2 configuration shared with the token manager.
package provider

import (
	"sync"
	"time"

	"github.com/castlebay/ledgerlink/internal/config"
	"golang.org/x/oauth2"
)

// OAuthConfig builds the oauth2 config for the provider. The token endpoint
// expects client credentials in the form body, not basic auth.
func OAuthConfig(pc *config.ProviderConfig, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       pc.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   pc.AuthURL,
			TokenURL:  pc.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// stateTTL bounds how long an abandoned login attempt stays pending before
// its state token is dropped.
const stateTTL = 10 * time.Minute

type pendingState struct {
	tenantID  string
	createdAt time.Time
}

// pendingStates maps the CSRF state token handed out at login time to the
// tenant that initiated the flow. Entries are consumed by the callback;
// abandoned ones are swept when new logins come in.
var (
	stateMu       sync.Mutex
	pendingStates = map[string]pendingState{}
)

func rememberState(state, tenantID string) {
	stateMu.Lock()
	defer stateMu.Unlock()
	for s, p := range pendingStates {
		if time.Since(p.createdAt) > stateTTL {
			delete(pendingStates, s)
		}
	}
	pendingStates[state] = pendingState{tenantID: tenantID, createdAt: time.Now()}
}

// consumeState returns the tenant for a state token and invalidates it.
// Expired tokens are treated as unknown.
func consumeState(state string) (string, bool) {
	stateMu.Lock()
	defer stateMu.Unlock()
	p, ok := pendingStates[state]
	if !ok {
		return "", false
	}
	delete(pendingStates, state)
	if time.Since(p.createdAt) > stateTTL {
		return "", false
	}
	return p.tenantID, true
}
