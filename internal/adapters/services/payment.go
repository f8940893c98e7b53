package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"booking_gateway/internal/domain"
)

type PaymentClient struct {
	client
}

func NewPayment(base string, timeout time.Duration, rps int) *PaymentClient {
	return &PaymentClient{newClient(base, timeout, rps)}
}

func (c *PaymentClient) CreatePayment(ctx context.Context, token string, price int) (domain.Payment, error) {
	body := map[string]int{"price": price}
	var p domain.Payment
	if err := c.call(ctx, http.MethodPost, "/api/v1/payments", token, "", nil, body, &p); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (c *PaymentClient) GetPayment(ctx context.Context, token, paymentUID string) (domain.Payment, error) {
	var p domain.Payment
	if err := c.call(ctx, http.MethodGet, "/api/v1/payments/"+paymentUID, token, "", nil, nil, &p); err != nil {
		return domain.Payment{}, err
	}
	// Missing rows come back as an empty object, not a 404.
	if p.Status == "" {
		return domain.Payment{}, fmt.Errorf("payment %s: %w", paymentUID, domain.ErrNotFound)
	}
	return p, nil
}

func (c *PaymentClient) CancelPayment(ctx context.Context, token, paymentUID string) error {
	return c.call(ctx, http.MethodPatch, "/api/v1/payments/"+paymentUID+"/cancel", token, "", nil, nil, nil)
}
