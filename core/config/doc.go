// Package config provides configuration management for the purchase reconciler.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, run on start)
//   - Log: Logging level and format
//   - Database: local order database connection (mysql or sqlite)
//   - Storage: S3/MinIO credentials and the run report bucket
//   - Billing: provider endpoint, account and push feed
//   - Reconcile: engine timeouts, retries and acknowledgment rate
//
// Environment keys map onto nested keys, e.g. RECONCILE_CONNECT_RETRIES -> reconcile.connect_retries.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
