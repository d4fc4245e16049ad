package probe

import (
	"context"
	"net/http"
	"time"
)

// Reachable performs a lightweight HEAD request against the origin endpoint
// within the given timeout. Failure to reach the endpoint is a normal false
// result, never an error: the caller uses it as a hard gate.
func Reachable(ctx context.Context, endpoint string, timeout time.Duration) bool {
	tr := &http.Transport{
		IdleConnTimeout:    60 * time.Second,
		DisableCompression: true,
	}

	cli := &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}

	res, err := cli.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	// Registries answer /v2/ with 200 or 401; both prove the path is usable
	return res.StatusCode < http.StatusInternalServerError
}
