package dlrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bbgflow/logger"
	"bbgflow/models"
)

const requestNamePrefix = "BloombergDataRequest"

// requestName builds a name with a short random suffix. The leading hex
// chars of a v4 UUID are random bits, so names stay distinct even for
// submissions issued back to back.
func requestName() string {
	return requestNamePrefix + uuid.New().String()[:6]
}

// Submit serializes the universe, field list, immediate-submission trigger
// and JSON output declaration into a single request document and POSTs it
// to the catalog's requests collection. It returns the generated request
// name and the server-assigned request identifier; those two carry the
// request's identity through the rest of the run.
func (c *Client) Submit(ctx context.Context, identifiers []models.Identifier, fields []models.FieldSpec) (string, string, error) {
	if c.catalogID == "" {
		return "", "", fmt.Errorf("catalog not resolved, call ResolveScheduledCatalog first")
	}
	if len(fields) == 0 {
		fields = models.DefaultFields()
	}

	name := requestName()
	doc := models.NewDataRequest(name, identifiers, fields)

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize request document: %w", err)
	}

	log := c.log.WithComponent("request").WithFields(logger.Fields{
		"request_name": name,
		"universe":     len(identifiers),
		"fields":       len(fields),
	})
	log.Info("submitting data request")

	requestsURL := c.endpoint("/eap/catalogs/" + c.catalogID + "/requests/")
	header := http.Header{"Content-Type": {"application/json"}}

	resp, err := c.session.Do(ctx, http.MethodPost, requestsURL, payload, header)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", "", &SubmissionError{RequestName: name, APIErr: apiErr}
		}
		return "", "", err
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")

	var created models.CreatedRequest
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", "", fmt.Errorf("failed to decode request creation response: %w", err)
	}
	requestID := created.Request.Identifier
	if requestID == "" {
		return "", "", fmt.Errorf("request creation response carried no identifier")
	}

	log.WithFields(logger.Fields{
		"request_id": requestID,
		"location":   location,
	}).Info("request resource created")

	c.inspectCreatedRequest(ctx, location)

	return name, requestID, nil
}

// inspectCreatedRequest reads the newly created resource back once, purely
// for verification and logging. Its result does not drive control flow.
func (c *Client) inspectCreatedRequest(ctx context.Context, location string) {
	if location == "" {
		return
	}

	log := c.log.WithComponent("request").WithFields(logger.Fields{"location": location})

	target := location
	if strings.HasPrefix(location, "/") {
		target = c.endpoint(location)
	}

	resp, err := c.session.Do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		log.WithError(err).Warn("verification read of created request failed")
		return
	}
	drainAndClose(resp)
	log.Debug("verified created request resource")
}
