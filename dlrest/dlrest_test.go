package dlrest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bbgflow/config"
)

// tokenCounter serves the client-credentials grant and counts fetches.
// Each grant hands out a distinct token "tok-N".
type tokenCounter struct {
	fetches   atomic.Int32
	expiresIn int64
}

func (tc *tokenCounter) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := tc.fetches.Add(1)
		expiresIn := tc.expiresIn
		if expiresIn == 0 {
			expiresIn = 3600
		}
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}
}

func testConfig(t *testing.T, apiHost, oauthEndpoint string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Bloomberg.ClientID = "test-id"
	cfg.Bloomberg.ClientSecret = "test-secret"
	cfg.Bloomberg.APIHost = apiHost
	cfg.Bloomberg.OAuthEndpoint = oauthEndpoint
	cfg.Poll.Interval = 10 * time.Millisecond
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.BurstSize = 100
	cfg.Paths.DownloadsDir = t.TempDir()
	return cfg
}

// newTestClient wires a Client against an httptest API server and a token
// server with long-lived tokens.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	tc := &tokenCounter{}
	tokenSrv := httptest.NewServer(tc.handler())
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(handler)
	t.Cleanup(apiSrv.Close)

	client, err := NewClient(testConfig(t, apiSrv.URL, tokenSrv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

// scheduledCatalogHandler serves a catalog listing whose scheduled entry is
// named catalogID.
func scheduledCatalogHandler(catalogID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"contains":[
			{"identifier":"bbg","subscriptionType":"realtime","title":"Realtime"},
			{"identifier":"%s","subscriptionType":"scheduled","title":"Scheduled"}
		]}`, catalogID)
	}
}
