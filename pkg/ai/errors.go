package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

var (
	// ErrBackendUnavailable indicates the availability probe failed.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrGenerationFailed indicates the generation request failed or timed out.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrExtractionExhausted indicates no extraction strategy produced a valid document.
	ErrExtractionExhausted = errors.New("extraction exhausted")
)

// GatewayErrorKind classifies a failed backend call.
type GatewayErrorKind string

const (
	GatewayErrorConnection GatewayErrorKind = "connection_refused"
	GatewayErrorTimeout    GatewayErrorKind = "timeout"
	GatewayErrorStatus     GatewayErrorKind = "status"
	GatewayErrorEmpty      GatewayErrorKind = "empty_response"
)

// GatewayError describes why a single backend call failed.
type GatewayError struct {
	Provider   string
	Operation  string
	Kind       GatewayErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayErrorStatus:
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Operation, e.StatusCode, e.Body)
	case GatewayErrorTimeout:
		return fmt.Sprintf("%s %s: timed out", e.Provider, e.Operation)
	case GatewayErrorEmpty:
		return fmt.Sprintf("%s %s: empty response", e.Provider, e.Operation)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: connection failed: %v", e.Provider, e.Operation, e.Err)
		}
		return fmt.Sprintf("%s %s: connection failed", e.Provider, e.Operation)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// statusExtractor pulls an HTTP status and body out of a provider SDK error.
type statusExtractor func(err error) (int, string, bool)

func classifyGatewayError(provider, operation string, err error, status statusExtractor) *GatewayError {
	gwErr := &GatewayError{
		Provider:  provider,
		Operation: operation,
		Kind:      GatewayErrorConnection,
		Err:       err,
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		gwErr.Kind = GatewayErrorTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		gwErr.Kind = GatewayErrorTimeout
	default:
		if status != nil {
			if code, body, ok := status(err); ok && code > 0 {
				gwErr.Kind = GatewayErrorStatus
				gwErr.StatusCode = code
				gwErr.Body = truncate(strings.TrimSpace(body), 512)
			}
		}
	}

	return gwErr
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	for limit > 0 && !utf8.RuneStart(value[limit]) {
		limit--
	}
	return value[:limit]
}
