// internal/workers/discovery/extract-intent/config.go
package extractintent

import "time"

type Config struct {
	Enabled bool
	// Timeout is the hard ceiling on one remote call.
	Timeout            time.Duration
	MinConfidence      float64
	SuggestionsEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 3 * time.Second,
	}
}
