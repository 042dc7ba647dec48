package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
)

var (
	transient   = resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	callerFault = resilience.ErrorClassification{}
	hardFailure = resilience.ErrorClassification{RecordFailure: true}
)

func classifyPublishError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return callerFault
	}
	if resilience.IsCircuitOpen(err) {
		return transient
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return transient
	}
	return hardFailure
}

// wrapTemporary tags connection level failures with ErrTemporary so the
// caller can decide whether a lost publish is worth retrying later.
func wrapTemporary(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyPublishError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
