package billing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseCode_String(t *testing.T) {
	assert.Equal(t, "OK(0)", OK.String())
	assert.Equal(t, "SERVICE_UNAVAILABLE(2)", ServiceUnavailable.String())
	assert.Equal(t, "UNKNOWN(42)", ResponseCode(42).String())
}

func TestResult_OK(t *testing.T) {
	assert.True(t, Result{Code: OK}.OK())
	for _, code := range []ResponseCode{ServiceTimeout, ServiceDisconnected, Error, ItemAlreadyOwned, NetworkError} {
		assert.False(t, Result{Code: code}.OK(), code.String())
	}
}

func TestProductType_IsValid(t *testing.T) {
	assert.True(t, Subscription.IsValid())
	assert.True(t, InApp.IsValid())
	assert.False(t, ProductType("lifetime").IsValid())
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewResponseError("query", Result{Code: BillingUnavailable, DebugMessage: "no account"}))

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, BillingUnavailable, code)
	assert.Contains(t, err.Error(), "BILLING_UNAVAILABLE(3): no account")

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestListener_NilCallbacks(t *testing.T) {
	var l Listener
	assert.NotPanics(t, func() {
		l.PurchasesUpdated(Result{}, nil)
		l.Disconnected()
	})
}

func TestResponseError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ResponseError{Op: "connect", Code: NetworkError, Message: cause.Error(), Err: cause}
	assert.ErrorIs(t, err, cause)
}
