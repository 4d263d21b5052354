package dlrest

import (
	"fmt"

	"bbgflow/models"
)

// APIError is the structured result of a non-2xx API response. Callers
// decide per call site whether the condition is fatal or retryable.
type APIError struct {
	StatusCode int
	Status     string
	RequestID  string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected response status %s (x-request-id %s): %s", e.Status, e.RequestID, e.Body)
}

// AuthError indicates the token fetch failed, or a request still failed
// authentication after the single refresh-and-retry. Not retried further.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// CatalogNotFoundError indicates the account's catalog listing contains no
// scheduled-subscription entry. It carries the full listing for diagnosis;
// the account is presumed misconfigured and the run is not retried.
type CatalogNotFoundError struct {
	Catalogs []models.Catalog
}

func (e *CatalogNotFoundError) Error() string {
	return fmt.Sprintf("scheduled catalog not found in %+v", e.Catalogs)
}

// SubmissionError indicates the server rejected the request document.
// The server-provided detail is surfaced verbatim through the wrapped
// APIError.
type SubmissionError struct {
	RequestName string
	APIErr      *APIError
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission of %s rejected: %v", e.RequestName, e.APIErr)
}

func (e *SubmissionError) Unwrap() error {
	return e.APIErr
}

// UnsupportedEncodingError indicates the response artifact used a transport
// content encoding other than gzip. Nothing is written to disk.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported content encoding %q received in the response", e.Encoding)
}
