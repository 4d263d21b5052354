package dlrest

import (
	"fmt"
	"net/url"
	"strings"

	"bbgflow/config"
	"bbgflow/logger"
)

// Client drives the request/poll/download lifecycle against a single
// scheduled-request catalog. It is not safe for concurrent use; the flow
// runs sequentially.
type Client struct {
	cfg       *config.Config
	session   *Session
	log       *logger.Log
	catalogID string
}

// NewClient validates the configured API host and builds a client with a
// fresh session. The catalog is resolved separately, per run.
func NewClient(cfg *config.Config) (*Client, error) {
	if _, err := url.Parse(cfg.Bloomberg.APIHost); err != nil {
		return nil, fmt.Errorf("invalid API host %s: %w", cfg.Bloomberg.APIHost, err)
	}

	return &Client{
		cfg:     cfg,
		session: NewSession(cfg),
		log:     logger.GetLogger(),
	}, nil
}

// CatalogID returns the resolved catalog identifier, empty until
// ResolveScheduledCatalog has succeeded.
func (c *Client) CatalogID() string {
	return c.catalogID
}

// endpoint joins an absolute path onto the configured API host.
func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.Bloomberg.APIHost, "/") + path
}
