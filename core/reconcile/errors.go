package reconcile

import (
	"context"
	"errors"
	"fmt"

	"purchase-reconciler/core/billing"
)

var (
	// ErrNotReady is returned when a push update arrives without a ready session.
	ErrNotReady = errors.New("no ready billing session")
	// ErrConnectInProgress is returned when a setup handshake is already in flight.
	ErrConnectInProgress = errors.New("billing connection attempt already in flight")
	// ErrClosed is returned by Run once the engine has been closed.
	ErrClosed = errors.New("reconciliation engine closed")

	errSessionReplaced = errors.New("billing session was closed or replaced")
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindConnection     ErrorKind = "connection"
	KindQuery          ErrorKind = "query"
	KindAcknowledgment ErrorKind = "acknowledgment"
)

// Error is a provider failure observed during a run. It is recorded and
// reported, never returned from Run.
type Error struct {
	Kind    ErrorKind
	Code    billing.ResponseCode
	OrderID string
	Token   string
	Err     error
}

func (e *Error) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s error for order %s: %s: %v", e.Kind, e.OrderID, e.Code, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps err with the provider code it carries. Errors without a code
// are mapped onto the closest provider code.
func classify(kind ErrorKind, err error) *Error {
	code, ok := billing.CodeOf(err)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			code = billing.ServiceTimeout
		case errors.Is(err, errSessionReplaced):
			code = billing.ServiceDisconnected
		default:
			code = billing.Error
		}
	}
	return &Error{Kind: kind, Code: code, Err: err}
}
