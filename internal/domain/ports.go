package domain

import (
	"context"
	"errors"
	"time"
)

// Downstream contracts. Every method forwards the caller's bearer token so
// the owning service can authorize and resolve the user on its side.

type ReservationService interface {
	ListHotels(ctx context.Context, token string, page, size int) (HotelsPage, error)
	GetHotel(ctx context.Context, token, hotelUID string) (Hotel, error)
	ListReservations(ctx context.Context, token string) ([]Reservation, error)
	GetReservation(ctx context.Context, token, reservationUID string) (Reservation, error)
	CreateReservation(ctx context.Context, token string, draft ReservationDraft) (Reservation, error)
	CancelReservation(ctx context.Context, token, reservationUID string) error
}

type PaymentService interface {
	CreatePayment(ctx context.Context, token string, price int) (Payment, error)
	GetPayment(ctx context.Context, token, paymentUID string) (Payment, error)
	CancelPayment(ctx context.Context, token, paymentUID string) error
}

type LoyaltyService interface {
	GetLoyalty(ctx context.Context, token string) (Loyalty, error)
	// UpdateLoyalty moves the user's reservation counter by delta. The user
	// is addressed by name so the deferred worker can replay the call long
	// after the original request (and its token) are gone.
	UpdateLoyalty(ctx context.Context, username string, delta int) error
}

// CompensationQueue is the producer side of the deferred compensation
// channel: durable, acknowledgment-gated, at-least-once delivery.
type CompensationQueue interface {
	Enqueue(ctx context.Context, task CompensationTask) error
}

// ErrNoTask is returned by Dequeue when the blocking wait elapses with
// nothing to deliver.
var ErrNoTask = errors.New("no task available")

// CompensationConsumer is the worker side of the channel. A delivered task
// stays unacknowledged until Ack; Requeue returns a failed delivery to the
// queue with its attempt counter bumped; RecoverPending re-queues
// deliveries stranded by a crashed worker.
type CompensationConsumer interface {
	Dequeue(ctx context.Context, wait time.Duration) (task CompensationTask, handle string, err error)
	Ack(ctx context.Context, handle string) error
	Requeue(ctx context.Context, task CompensationTask, handle string) error
	RecoverPending(ctx context.Context) (int, error)
}
