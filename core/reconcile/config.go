package reconcile

import (
	"time"

	"purchase-reconciler/core/billing"

	"golang.org/x/time/rate"
)

// Config holds the engine tuning knobs.
type Config struct {
	// ProductType is the purchase category queried on every run.
	ProductType string `mapstructure:"product_type" default:"subs"`
	// ConnectTimeoutSeconds bounds each setup handshake.
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds" default:"15"`
	// QueryTimeoutSeconds bounds the purchase query.
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds" default:"15"`
	// AckTimeoutSeconds bounds each acknowledgment call.
	AckTimeoutSeconds int `mapstructure:"ack_timeout_seconds" default:"15"`
	// ConnectRetries is the number of extra setup attempts. Zero surfaces the
	// first failure.
	ConnectRetries int `mapstructure:"connect_retries" default:"0"`
	// BackoffInitialMillis is the first delay between setup attempts.
	BackoffInitialMillis int `mapstructure:"backoff_initial_millis" default:"500"`
	// BackoffMaxMillis caps the delay between setup attempts.
	BackoffMaxMillis int `mapstructure:"backoff_max_millis" default:"10000"`
	// AckRatePerSecond limits acknowledgment calls. Zero means unlimited.
	AckRatePerSecond float64 `mapstructure:"ack_rate_per_second" default:"0"`
	// AckBurst is the limiter burst size.
	AckBurst int `mapstructure:"ack_burst" default:"1"`
	// DrainTimeoutSeconds bounds how long shutdown waits for acknowledgments
	// still in flight.
	DrainTimeoutSeconds int `mapstructure:"drain_timeout_seconds" default:"10"`
	// ArchivePrefix is the storage prefix for archived run reports.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"reports"`
}

func (c Config) productType() billing.ProductType {
	if p := billing.ProductType(c.ProductType); p.IsValid() {
		return p
	}
	return billing.Subscription
}

func (c Config) connectTimeout() time.Duration {
	return seconds(c.ConnectTimeoutSeconds, 15)
}

func (c Config) queryTimeout() time.Duration {
	return seconds(c.QueryTimeoutSeconds, 15)
}

func (c Config) ackTimeout() time.Duration {
	return seconds(c.AckTimeoutSeconds, 15)
}

// DrainTimeout returns the shutdown grace period for acknowledgments.
func (c Config) DrainTimeout() time.Duration {
	return seconds(c.DrainTimeoutSeconds, 10)
}

func (c Config) backoffInitial() time.Duration {
	return millis(c.BackoffInitialMillis, 500)
}

func (c Config) backoffMax() time.Duration {
	return millis(c.BackoffMaxMillis, 10000)
}

// limiter returns nil when acknowledgments are not throttled.
func (c Config) limiter() *rate.Limiter {
	if c.AckRatePerSecond <= 0 {
		return nil
	}
	burst := c.AckBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.AckRatePerSecond), burst)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func millis(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Millisecond
}
