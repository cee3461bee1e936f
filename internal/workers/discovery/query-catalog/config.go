// internal/workers/discovery/query-catalog/config.go
package querycatalog

import "time"

type Config struct {
	Timeout time.Duration
	// MaxResults caps the matches returned per query.
	MaxResults   int
	RelaxOnEmpty bool
	CacheTTL     time.Duration
	Index        string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		MaxResults:   10,
		RelaxOnEmpty: true,
		CacheTTL:     5 * time.Minute,
		Index:        "catalog_products",
	}
}
