package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
)

// Classification outcomes. transient feeds both the retry loop and the
// breaker, callerFault touches neither, hardFailure only the breaker.
var (
	transient   = resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	callerFault = resilience.ErrorClassification{}
	hardFailure = resilience.ErrorClassification{RecordFailure: true}
)

// HTTPStatusError carries the status and body of a failed model server
// call. The status code drives retry classification.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	msg := fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func classifyCallError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return callerFault
	}
	if resilience.IsCircuitOpen(err) {
		return transient
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if retryableStatus(statusErr.StatusCode) {
			return transient
		}
		return callerFault
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return transient
	}
	return hardFailure
}

// wrapTemporary tags retryable failures with ErrTemporary so callers
// can tell a struggling model server from a bad request.
func wrapTemporary(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyCallError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
