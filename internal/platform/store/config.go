package store

import "time"

// Config selects and configures the backends
type Config struct {
	PG PGConfig
	CH CHConfig
}

// PGConfig configures Postgres
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	Slow     time.Duration

	// ConnectRetries bounds the startup ping loop, 0 means 8
	ConnectRetries int
	// PingTimeout bounds a single startup ping, 0 means 3s
	PingTimeout time.Duration
	// TxRetries bounds retries of serialization and deadlock failures, 0 means 3
	TxRetries int
}

// CHConfig configures ClickHouse
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientName and ClientTag show up in system.query_log
	ClientName string
	ClientTag  string
}

func (c PGConfig) withDefaults() PGConfig {
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 8
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 3 * time.Second
	}
	if c.TxRetries <= 0 {
		c.TxRetries = 3
	}
	return c
}
