package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"booking_gateway/internal/domain"
)

type ReservationClient struct {
	client
}

func NewReservation(base string, timeout time.Duration, rps int) *ReservationClient {
	return &ReservationClient{newClient(base, timeout, rps)}
}

func (c *ReservationClient) ListHotels(ctx context.Context, token string, page, size int) (domain.HotelsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var raw struct {
		Total int            `json:"total"`
		Items []domain.Hotel `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/hotels", token, "", q, nil, &raw); err != nil {
		return domain.HotelsPage{}, err
	}
	return domain.HotelsPage{
		Page:          page,
		PageSize:      size,
		TotalElements: raw.Total,
		Items:         raw.Items,
	}, nil
}

func (c *ReservationClient) GetHotel(ctx context.Context, token, hotelUID string) (domain.Hotel, error) {
	var h domain.Hotel
	if err := c.call(ctx, http.MethodGet, "/api/v1/hotel/"+hotelUID, token, "", nil, nil, &h); err != nil {
		return domain.Hotel{}, err
	}
	// The reservation service answers 200 with an empty object for unknown
	// hotels; normalize that to a not-found.
	if h.HotelUID == "" {
		return domain.Hotel{}, fmt.Errorf("hotel %s: %w", hotelUID, domain.ErrNotFound)
	}
	return h, nil
}

func (c *ReservationClient) ListReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	var raw struct {
		Reservations []domain.Reservation `json:"reservations"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/me", token, "", nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw.Reservations, nil
}

func (c *ReservationClient) GetReservation(ctx context.Context, token, reservationUID string) (domain.Reservation, error) {
	var r domain.Reservation
	if err := c.call(ctx, http.MethodGet, "/api/v1/reservations/"+reservationUID, token, "", nil, nil, &r); err != nil {
		return domain.Reservation{}, err
	}
	if r.ReservationUID == "" {
		return domain.Reservation{}, fmt.Errorf("reservation %s: %w", reservationUID, domain.ErrNotFound)
	}
	return r, nil
}

func (c *ReservationClient) CreateReservation(ctx context.Context, token string, draft domain.ReservationDraft) (domain.Reservation, error) {
	var r domain.Reservation
	if err := c.call(ctx, http.MethodPost, "/api/v1/reservations", token, "", nil, draft, &r); err != nil {
		return domain.Reservation{}, err
	}
	if r.Status == "" {
		r.Status = draft.Status
	}
	return r, nil
}

func (c *ReservationClient) CancelReservation(ctx context.Context, token, reservationUID string) error {
	return c.call(ctx, http.MethodPatch, "/api/v1/reservations/"+reservationUID+"/cancel", token, "", nil, nil, nil)
}
