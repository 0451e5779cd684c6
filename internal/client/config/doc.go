// Package config loads runtime configuration for the tracker client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. TRACKER_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the authentication server
//	-d string   path to the session database
//	-t int      request timeout (seconds)
//	-i int      session check interval (seconds)
//	-l string   log level
//
// Environment
//
//	TRACKER_SERVER_URL, TRACKER_DB_PATH, TRACKER_REQUEST_TIMEOUT,
//	TRACKER_SESSION_CHECK_INTERVAL, TRACKER_LOG_LEVEL
//
// # JSON schema
//
//	{
//	  "server_base_url": "https://auth.example.com",
//	  "database_path": "/var/lib/tracker/session.db",
//	  "request_timeout": "10s",
//	  "session_check_interval": "1m",
//	  "log_level": "debug"
//	}
package config
