// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"product-discovery/internal/common/config"
	apperrors "product-discovery/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

const esProbeTimeout = 5 * time.Second

// ElasticsearchClient wraps the search-index catalog connection.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch builds a client for the catalog index. Catalog reads are
// single attempts, so transport retries are disabled.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses:    cfg.Addresses,
		DisableRetry: true,
	}
	if len(esCfg.Addresses) == 0 && cfg.GetURL() != "" {
		esCfg.Addresses = []string{cfg.GetURL()}
	}
	if len(esCfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch address is required")
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, esProbeTimeout)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// IndexReady returns a readiness probe that fails while index is missing.
func (c *ElasticsearchClient) IndexReady(index string) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, esProbeTimeout)
		defer cancel()

		res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("elasticsearch index probe failed: %w", err)
		}
		defer res.Body.Close()

		switch {
		case res.StatusCode == http.StatusNotFound:
			return apperrors.NewIndexNotFoundError(index)
		case res.IsError():
			return fmt.Errorf("elasticsearch index probe error: %s", res.Status())
		}
		return nil
	}
}
