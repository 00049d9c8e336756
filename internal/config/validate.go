package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Swarm.validate(); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Enabled {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Scrape.SportID < 1 {
		return errors.New("scrape.sport_id must be >= 1")
	}
	if c.Scrape.Concurrency < 1 {
		return errors.New("scrape.concurrency must be >= 1")
	}
	if c.Scrape.RatePerSecond < 0 {
		return errors.New("scrape.rate_per_second must be >= 0")
	}
	if c.Scrape.Interval < 0 {
		return errors.New("scrape.interval must be >= 0")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q is invalid", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (s *SwarmConfig) validate() error {
	if s.URL == "" {
		return errors.New("swarm.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("swarm.url must be a ws:// or wss:// url, got %q", s.URL)
	}
	if s.SiteID < 1 {
		return errors.New("swarm.site_id must be >= 1")
	}
	if _, err := language.ParseBase(s.Language); err != nil {
		return fmt.Errorf("swarm.language %q is not a language code", s.Language)
	}
	if s.ConnectTimeout <= 0 {
		return errors.New("swarm.connect_timeout must be > 0")
	}
	if s.RequestTimeout <= 0 {
		return errors.New("swarm.request_timeout must be > 0")
	}
	if s.WideRequestTimeout < s.RequestTimeout {
		return fmt.Errorf("swarm.wide_request_timeout (%s) cannot be shorter than request_timeout (%s)",
			s.WideRequestTimeout, s.RequestTimeout)
	}
	if s.PingInterval > 0 && s.PingTimeout <= s.PingInterval {
		return fmt.Errorf("swarm.ping_timeout (%s) must exceed ping_interval (%s)", s.PingTimeout, s.PingInterval)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
