// Error normalization for LLM providers.
//
// Information Hiding:
// - SDK-specific error types never leave an adapter
// - HTTP status codes are mapped to a small set of kinds
// - Callers inspect Kind and Provider, not vendor exceptions

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindAuth              ErrorKind = "auth"
	KindRateLimit         ErrorKind = "rate_limit"
	KindTimeout           ErrorKind = "timeout"
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ProviderError is the single error type adapters return for failures of
// the backing service or its transport.
type ProviderError struct {
	Kind     ErrorKind
	Provider ProviderType
	Status   int // HTTP status when the service answered, else 0
	Message  string
	wrapped  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.wrapped }

// UnsupportedProviderError reports a provider name outside the supported set.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported AI provider: %q", e.Name)
}

// statusFunc extracts an HTTP status code from an SDK error, or 0.
type statusFunc func(error) int

// normalizeError converts err into a *ProviderError. ctx is the call
// context carrying the adapter timeout. Caller cancellation is returned
// unchanged because it is not a provider failure.
func normalizeError(ctx context.Context, provider ProviderType, op string, err error, status statusFunc) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}

	code := 0
	if status != nil {
		code = status(err)
	}

	kind := KindTransport
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = KindAuth
	case code == http.StatusTooManyRequests:
		kind = KindRateLimit
	case isNetTimeout(err):
		kind = KindTimeout
	}

	return &ProviderError{
		Kind:     kind,
		Provider: provider,
		Status:   code,
		Message:  fmt.Sprintf("%s failed: %v", op, err),
		wrapped:  err,
	}
}

// malformed builds a malformed_response error for an unusable reply.
func malformed(provider ProviderType, format string, args ...any) *ProviderError {
	return &ProviderError{
		Kind:     KindMalformedResponse,
		Provider: provider,
		Message:  fmt.Sprintf(format, args...),
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func hasKind(kind ErrorKind) func(error) bool {
	return func(err error) bool {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return pe.Kind == kind
		}
		return false
	}
}

// Helper predicates for common error handling patterns.
var (
	IsAuth        = hasKind(KindAuth)
	IsRateLimited = hasKind(KindRateLimit)
	IsTimeout     = hasKind(KindTimeout)
	IsTransport   = hasKind(KindTransport)
	IsMalformed   = hasKind(KindMalformedResponse)
)

// IsUnsupportedProvider reports whether err is an UnsupportedProviderError.
func IsUnsupportedProvider(err error) bool {
	var ue *UnsupportedProviderError
	return errors.As(err, &ue)
}
