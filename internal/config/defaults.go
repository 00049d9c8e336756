package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSwarmURL           = "wss://eu-swarm-newm.vmemkhhgjigrjefb.com"
	DefaultSiteID             = 1777
	DefaultLanguage           = "eng"
	DefaultConnectTimeout     = 15 * time.Second
	DefaultRequestTimeout     = 60 * time.Second
	DefaultWideRequestTimeout = 90 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultServerPort         = 3000
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultSportID            = 1
	DefaultOutputPath         = "football_games.json"
	DefaultScrapeConcurrency  = 4
	DefaultRatePerSecond      = 10
	DefaultMetricsPath        = "/metrics"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	// Swarm defaults
	if c.Swarm.URL == "" {
		c.Swarm.URL = DefaultSwarmURL
	}
	if c.Swarm.SiteID == 0 {
		c.Swarm.SiteID = DefaultSiteID
	}
	if c.Swarm.Language == "" {
		c.Swarm.Language = DefaultLanguage
	}
	if c.Swarm.ConnectTimeout == 0 {
		c.Swarm.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Swarm.RequestTimeout == 0 {
		c.Swarm.RequestTimeout = DefaultRequestTimeout
	}
	if c.Swarm.WideRequestTimeout == 0 {
		c.Swarm.WideRequestTimeout = DefaultWideRequestTimeout
	}
	if c.Swarm.WriteTimeout == 0 {
		c.Swarm.WriteTimeout = DefaultWriteTimeout
	}
	if c.Swarm.PingInterval == 0 {
		c.Swarm.PingInterval = DefaultPingInterval
	}
	if c.Swarm.PingTimeout == 0 {
		c.Swarm.PingTimeout = DefaultPingTimeout
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Scrape defaults
	if c.Scrape.SportID == 0 {
		c.Scrape.SportID = DefaultSportID
	}
	if c.Scrape.OutputPath == "" {
		c.Scrape.OutputPath = DefaultOutputPath
	}
	if c.Scrape.Concurrency == 0 {
		c.Scrape.Concurrency = DefaultScrapeConcurrency
	}
	if c.Scrape.RatePerSecond == 0 {
		c.Scrape.RatePerSecond = DefaultRatePerSecond
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
