// internal/workers/discovery/handle-message/config.go
package handlemessage

import (
	"fmt"
	"time"

	"product-discovery/internal/common/config"
	extractintent "product-discovery/internal/workers/discovery/extract-intent"
	"product-discovery/pkg/policy"
)

type Config struct {
	Enabled bool
	// Timeout bounds one whole message, all stages included.
	Timeout        time.Duration
	QueryTimeout   time.Duration
	MaxResults     int
	RelaxOnEmpty   bool
	CurrencySymbol string
	Extract        *extractintent.Config
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		Timeout:        10 * time.Second,
		QueryTimeout:   5 * time.Second,
		MaxResults:     10,
		RelaxOnEmpty:   true,
		CurrencySymbol: "₹",
		Extract:        extractintent.LoadConfig(),
	}
}

// ConfigFromApp derives the pipeline settings from the application config
// and the rule policy. Zero values keep the defaults.
func ConfigFromApp(app *config.Config, p *policy.Policy) *Config {
	cfg := DefaultConfig()
	if p != nil {
		cfg.RelaxOnEmpty = p.RelaxOnEmpty
		if p.Currency.Symbol != "" {
			cfg.CurrencySymbol = p.Currency.Symbol
		}
	}
	if app == nil {
		return cfg
	}

	if app.Server.RequestTimeout > 0 {
		cfg.Timeout = time.Duration(app.Server.RequestTimeout) * time.Millisecond
	}
	if app.Catalog.QueryTimeout > 0 {
		cfg.QueryTimeout = time.Duration(app.Catalog.QueryTimeout) * time.Millisecond
	}
	if app.Catalog.MaxResults > 0 {
		cfg.MaxResults = app.Catalog.MaxResults
	}

	cfg.Extract.Enabled = app.LLM.Active()
	if app.LLM.Timeout > 0 {
		cfg.Extract.Timeout = time.Duration(app.LLM.Timeout) * time.Millisecond
	}
	cfg.Extract.MinConfidence = app.LLM.MinConfidence
	cfg.Extract.SuggestionsEnabled = app.LLM.SuggestionsEnabled

	if w, ok := app.Workers[TaskType]; ok {
		cfg.Enabled = w.Enabled
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	if c.Extract == nil || c.Extract.Timeout <= 0 {
		return fmt.Errorf("extraction timeout must be positive")
	}
	if c.Extract.Timeout >= c.Timeout {
		return fmt.Errorf("extraction timeout %s must be below the message timeout %s", c.Extract.Timeout, c.Timeout)
	}
	return nil
}
