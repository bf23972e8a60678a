package apiclient

import (
	"errors"
	"fmt"

	"github.com/castlebay/ledgerlink/internal/util"
)

// Sentinel errors for precondition failures surfaced before any provider
// call. ErrNoBusinessSelected is distinct from an auth failure so callers can
// route the user to business selection instead of re-authentication.
var (
	ErrUnauthenticated    = errors.New("tenant is not authenticated with the provider")
	ErrNoBusinessSelected = errors.New("connection has no business selected")
)

// APIError is a non-2xx answer from the business API after the retry budget
// was spent. Body carries the provider's response verbatim.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error %d: %s", e.StatusCode, util.TruncateBytes(e.Body))
}

// TransportError is a network-level failure (timeout, connection reset).
// Never retried here; transient-failure policy belongs to the caller.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
