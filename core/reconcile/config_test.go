package reconcile

import (
	"testing"
	"time"

	"purchase-reconciler/core/billing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config

	assert.Equal(t, billing.Subscription, cfg.productType())
	assert.Equal(t, 15*time.Second, cfg.connectTimeout())
	assert.Equal(t, 15*time.Second, cfg.queryTimeout())
	assert.Equal(t, 15*time.Second, cfg.ackTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.backoffInitial())
	assert.Equal(t, 10*time.Second, cfg.backoffMax())
	assert.Equal(t, 10*time.Second, cfg.DrainTimeout())
	assert.Nil(t, cfg.limiter())
}

func TestConfig_Overrides(t *testing.T) {
	cfg := Config{
		ProductType:           "inapp",
		ConnectTimeoutSeconds: 3,
		BackoffInitialMillis:  20,
		AckRatePerSecond:      2.5,
		AckBurst:              0,
	}

	assert.Equal(t, billing.InApp, cfg.productType())
	assert.Equal(t, 3*time.Second, cfg.connectTimeout())
	assert.Equal(t, 20*time.Millisecond, cfg.backoffInitial())

	limiter := cfg.limiter()
	if assert.NotNil(t, limiter) {
		assert.Equal(t, 1, limiter.Burst())
		assert.InDelta(t, 2.5, float64(limiter.Limit()), 0.001)
	}

	assert.Equal(t, billing.Subscription, Config{ProductType: "bogus"}.productType())
}
