package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// postJSON encodes payload and POSTs it to url. decorate may add headers
// computed from the encoded body. Any non-2xx reply is an error carrying
// the start of the response body.
func postJSON(ctx context.Context, client *http.Client, target, url string, payload any, decorate func(h http.Header, body []byte)) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WattSense/1.0")
	if decorate != nil {
		decorate(req.Header, body)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if detail = bytes.TrimSpace(detail); len(detail) > 0 {
			return fmt.Errorf("%s returned status %d: %s", target, resp.StatusCode, detail)
		}
		return fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return nil
}
