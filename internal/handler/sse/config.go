package sse

import "time"

// Config holds configuration for SSE responses
type Config struct {
	// KeepAliveInterval is how often a comment line is sent while the model
	// has not produced text yet. Zero disables keep-alive.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the default SSE configuration.
// 15 seconds stays under the idle timeout of common proxies.
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 15 * time.Second,
	}
}
