package gateway

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the autocomplete provider does not
// answer within the configured budget. Callers treat it as a normal
// empty result, not a failure.
var ErrTimeout = errors.New("autocomplete request timed out")

// ProviderError reports a non-success response from the provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("autocomplete provider returned status %d: %s", e.StatusCode, e.Body)
}
