package helpers

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Open returns a reader for a local path or an http(s) URL. The caller
// closes it.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if isURL(location) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, errors.Wrap(err, "building request")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Errorf("getting via http: %s returned %s", location, resp.Status)
		}
		return resp.Body, nil
	}

	f, err := os.Open(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
