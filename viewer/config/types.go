package config

// ViewerConfig holds everything the viewer service needs at startup.
type ViewerConfig struct {
	// http server configs
	Port int    `mapstructure:"port" toml:"port"`
	Host string `mapstructure:"host" toml:"host"`

	// CORS configs
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`

	// rate limiting configs
	RatePerMinute int `mapstructure:"rate_per_minute" toml:"rate_per_minute"`

	// metrics configs
	EnableMetrics bool `mapstructure:"enable_metrics" toml:"enable_metrics"`

	// network table file (TOML), loaded once at startup
	NetworksFile string `mapstructure:"networks_file" toml:"networks_file"`

	// share-link backend
	ShareBackendURL string `mapstructure:"share_backend_url" toml:"share_backend_url"`

	// upstream request timeout in seconds (explorer and share backend)
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" toml:"request_timeout_seconds"`

	// significance floor for token holdings, in fiat units. The floor has
	// drifted between product revisions, so it stays configurable.
	HoldingsFloor string `mapstructure:"holdings_floor" toml:"holdings_floor"`
}
