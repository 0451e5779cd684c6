package config

import "time"

// Config holds runtime settings for the tracker client.
//
// Fields:
//   - ServerBaseURL: base URL of the authentication server.
//   - DatabasePath: SQLite file holding the persisted session.
//   - RequestTimeout: upper bound for a single request to the server.
//   - SessionCheckInterval: how often a signed-in session is re-validated.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL        string        `env:"TRACKER_SERVER_URL"`
	DatabasePath         string        `env:"TRACKER_DB_PATH"`
	RequestTimeout       time.Duration `env:"TRACKER_REQUEST_TIMEOUT"`
	SessionCheckInterval time.Duration `env:"TRACKER_SESSION_CHECK_INTERVAL"`
	LogLevel             string        `env:"TRACKER_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.DatabasePath = "session.db"
	c.RequestTimeout = 10 * time.Second
	c.SessionCheckInterval = time.Minute
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
