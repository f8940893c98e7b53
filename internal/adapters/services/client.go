// Package services holds the HTTP clients for the three downstream
// collaborators (reservation, payment, loyalty). Each client makes exactly
// one attempt per call: retries and failure isolation belong to the circuit
// breaker layer, not here.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"booking_gateway/internal/domain"
)

const userHeader = "X-User-Name"

type client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func newClient(base string, timeout time.Duration, rps int) client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if rps <= 0 {
		rps = 50
	}
	return client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// call issues one JSON request. token (Authorization) and user (X-User-Name)
// headers are forwarded when non-empty. out may be nil for calls whose body
// is irrelevant.
func (c *client) call(ctx context.Context, method, path, token, user string, q url.Values, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)

	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The dependency is healthy and rejected the request; not a breaker
		// failure.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", domain.ErrInvalidInput, resp.StatusCode, strings.TrimSpace(string(b)))

	default:
		return fmt.Errorf("remote %d", resp.StatusCode)
	}
}
