package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.RunOnStart)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "purchase-reports", cfg.Storage.Bucket)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "billing.purchases", cfg.Billing.UpdatesSubject)
	assert.Equal(t, "subs", cfg.Reconcile.ProductType)
	assert.Equal(t, 0, cfg.Reconcile.ConnectRetries)
	assert.Equal(t, 15, cfg.Reconcile.AckTimeoutSeconds)
	assert.Equal(t, "reports", cfg.Reconcile.ArchivePrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "BILLING_ACCOUNT_ID=acct-7\nRECONCILE_ACK_RATE_PER_SECOND=2.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BILLING_ACCOUNT_ID")
		os.Unsetenv("RECONCILE_ACK_RATE_PER_SECOND")
	})

	t.Setenv("RECONCILE_CONNECT_RETRIES", "3")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "acct-7", cfg.Billing.AccountID)
	assert.InDelta(t, 2.5, cfg.Reconcile.AckRatePerSecond, 0.001)
	assert.Equal(t, 3, cfg.Reconcile.ConnectRetries)
	assert.Equal(t, "9191", cfg.Server.Port)
}
