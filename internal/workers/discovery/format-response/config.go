// internal/workers/discovery/format-response/config.go
package formatresponse

import "time"

type Config struct {
	Timeout        time.Duration
	CurrencySymbol string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		CurrencySymbol: "₹",
	}
}
