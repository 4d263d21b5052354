package dlrest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"bbgflow/logger"
)

// Download streams the response artifact for the given key into the
// downloads directory. The body is copied verbatim: a gzip content
// encoding only changes the file name, decompression is deferred to the
// reader. Any other non-empty encoding aborts the download before a file
// is created.
func (c *Client) Download(ctx context.Context, key string) (string, error) {
	if c.catalogID == "" {
		return "", fmt.Errorf("catalog not resolved, call ResolveScheduledCatalog first")
	}

	outputURL := c.endpoint("/eap/catalogs/" + c.catalogID + "/content/responses/" + key)

	// Ask for gzip explicitly so the transport hands over the compressed
	// bytes and the Content-Encoding header untouched.
	header := http.Header{"Accept-Encoding": {"gzip"}}

	resp, err := c.session.Do(ctx, http.MethodGet, outputURL, nil, header)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	filename := key
	switch encoding := resp.Header.Get("Content-Encoding"); encoding {
	case "":
	case "gzip":
		filename = key + ".gz"
	default:
		return "", &UnsupportedEncodingError{Encoding: encoding}
	}

	if err := os.MkdirAll(c.cfg.Paths.DownloadsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}

	path := filepath.Join(c.cfg.Paths.DownloadsDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	log := c.log.WithComponent("download").WithFields(logger.Fields{
		"key":  key,
		"path": path,
	})
	log.Info("loading file (can take a while)")

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("download of %s failed: %w", key, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to finalize output file: %w", err)
	}

	log.WithFields(logger.Fields{"bytes": written}).Info("file downloaded")
	c.log.LogMetric("download", "artifact_bytes", written, logger.Fields{"key": key})

	return path, nil
}
