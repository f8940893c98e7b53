package services

import (
	"context"
	"net/http"
	"time"

	"booking_gateway/internal/domain"
)

type LoyaltyClient struct {
	client
}

func NewLoyalty(base string, timeout time.Duration, rps int) *LoyaltyClient {
	return &LoyaltyClient{newClient(base, timeout, rps)}
}

func (c *LoyaltyClient) GetLoyalty(ctx context.Context, token string) (domain.Loyalty, error) {
	var l domain.Loyalty
	if err := c.call(ctx, http.MethodGet, "/api/v1/me", token, "", nil, nil, &l); err != nil {
		return domain.Loyalty{}, err
	}
	// Users with no loyalty row yet get an empty object; that is a valid
	// zero-discount answer, not an error.
	return l, nil
}

// UpdateLoyalty addresses the user by name rather than by token so the
// deferred compensation worker can replay it after the original request's
// token is gone. The loyalty service trusts this header from inside the
// platform network.
func (c *LoyaltyClient) UpdateLoyalty(ctx context.Context, username string, delta int) error {
	body := map[string]int{"delta": delta}
	return c.call(ctx, http.MethodPatch, "/api/v1/loyalty", "", username, nil, body, nil)
}
