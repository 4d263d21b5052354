package dlrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bbgflow/logger"
	"bbgflow/models"
)

const defaultPollInterval = 30 * time.Second

// Poll repeatedly fetches the catalog's response listing filtered by the
// request name and identifier until an entry appears or the timeout
// elapses. The first listed entry wins; the listing is server-ordered.
// A timeout is a defined outcome, not an error: ok is false and err nil.
// The wait between polls is a fixed interval, no backoff.
func (c *Client) Poll(ctx context.Context, requestName, requestID string, timeout time.Duration) (string, bool, error) {
	if c.catalogID == "" {
		return "", false, fmt.Errorf("catalog not resolved, call ResolveScheduledCatalog first")
	}

	interval := c.cfg.Poll.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	params := url.Values{
		"prefix":            {requestName},
		"requestIdentifier": {requestID},
	}
	responsesURL := c.endpoint("/eap/catalogs/"+c.catalogID+"/content/responses/") + "?" + params.Encode()

	log := c.log.WithComponent("poller").WithFields(logger.Fields{
		"request_name": requestName,
		"request_id":   requestID,
	})

	deadline := time.Now().Add(timeout)
	cycles := 0

	for {
		resp, err := c.session.Do(ctx, http.MethodGet, responsesURL, nil, nil)
		if err != nil {
			return "", false, err
		}

		var listing models.ResponseList
		decodeErr := json.NewDecoder(resp.Body).Decode(&listing)
		resp.Body.Close()
		if decodeErr != nil {
			return "", false, fmt.Errorf("failed to decode response listing: %w", decodeErr)
		}
		cycles++

		if len(listing.Contains) > 0 {
			entry := listing.Contains[0]
			log.WithFields(logger.Fields{
				"key":         entry.Key,
				"poll_cycles": cycles,
			}).Info("response available")
			return entry.Key, true, nil
		}

		if !time.Now().Before(deadline) {
			log.WithFields(logger.Fields{
				"timeout":     timeout.String(),
				"poll_cycles": cycles,
			}).Warn("response not received within timeout")
			return "", false, nil
		}

		log.Info("content not ready for download yet, waiting")

		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(interval):
		}
	}
}
