package config

import "github.com/rickgao/forzza-swarm/internal/swarm"

// ClientConfig converts the Swarm settings to a client configuration.
// Handshake timeout and buffer size keep the client defaults.
func (c SwarmConfig) ClientConfig() swarm.Config {
	return swarm.Config{
		URL:            c.URL,
		SiteID:         c.SiteID,
		Language:       c.Language,
		ConnectTimeout: c.ConnectTimeout,
		RequestTimeout: c.RequestTimeout,
		WriteTimeout:   c.WriteTimeout,
		PingInterval:   c.PingInterval,
		PingTimeout:    c.PingTimeout,
	}
}
