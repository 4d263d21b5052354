package dlrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bbgflow/logger"
	"bbgflow/models"
)

// scheduledSubscription marks the catalog used for asynchronous,
// polling-based data delivery.
const scheduledSubscription = "scheduled"

// ResolveScheduledCatalog fetches the account's catalog listing and returns
// the identifier of the first entry with a scheduled subscription. Exactly
// one such entry is expected; its absence means the account is
// misconfigured and the run cannot proceed.
func (c *Client) ResolveScheduledCatalog(ctx context.Context) (string, error) {
	log := c.log.WithComponent("catalog")

	resp, err := c.session.Do(ctx, http.MethodGet, c.endpoint("/eap/catalogs/"), nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var listing models.CatalogList
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("failed to decode catalog listing: %w", err)
	}

	for _, catalog := range listing.Contains {
		if catalog.SubscriptionType == scheduledSubscription {
			c.catalogID = catalog.Identifier
			log.WithFields(logger.Fields{
				"catalog_id": catalog.Identifier,
				"title":      catalog.Title,
			}).Info("resolved scheduled catalog")
			return catalog.Identifier, nil
		}
	}

	return "", &CatalogNotFoundError{Catalogs: listing.Contains}
}
