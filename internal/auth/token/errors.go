package token

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing connection state. Callers treat all three as
// "re-authentication required".
var (
	ErrNotConnected   = errors.New("provider not connected for tenant")
	ErrNoAccessToken  = errors.New("connection has no access token")
	ErrNoRefreshToken = errors.New("connection has no refresh token")
)

// RefreshError reports a rejected token-endpoint exchange. Detail carries the
// provider's error body verbatim when available.
type RefreshError struct {
	Detail string
	Err    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh rejected: %s", e.Detail)
}

func (e *RefreshError) Unwrap() error { return e.Err }
