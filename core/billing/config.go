package billing

// Config holds configuration for the billing provider connection.
type Config struct {
	// BaseURL is the provider REST endpoint.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:8090"`
	// ApiKey authenticates this service with the provider.
	ApiKey string `mapstructure:"api_key" default:""`
	// AccountID identifies the current user whose purchases are reconciled.
	AccountID string `mapstructure:"account_id" default:""`
	// TimeoutSeconds bounds every provider HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// NatsURL is the server carrying pushed purchase updates. Empty disables push.
	NatsURL string `mapstructure:"nats_url" default:""`
	// UpdatesSubject is the subject prefix for pushed purchase updates.
	UpdatesSubject string `mapstructure:"updates_subject" default:"billing.purchases"`
}
