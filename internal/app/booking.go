package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"booking_gateway/internal/breaker"
	"booking_gateway/internal/domain"
)

// Dependency names; each one owns a breaker in the registry.
const (
	SvcReservation = "reservation"
	SvcPayment     = "payment"
	SvcLoyalty     = "loyalty"
)

// Proxies bundles the breaker-gated call wrappers, one per dependency.
type Proxies struct {
	Reservation *breaker.Proxy
	Payment     *breaker.Proxy
	Loyalty     *breaker.Proxy
}

func NewProxies(reg *breaker.Registry, timeout time.Duration) Proxies {
	return Proxies{
		Reservation: breaker.NewProxy(reg, SvcReservation, timeout),
		Payment:     breaker.NewProxy(reg, SvcPayment, timeout),
		Loyalty:     breaker.NewProxy(reg, SvcLoyalty, timeout),
	}
}

// BookingService orchestrates the create and cancel booking sagas across the
// reservation, payment and loyalty services. Steps run strictly in order;
// when a later step fails the service compensates the committed earlier ones
// instead of relying on any cross-service transaction.
type BookingService struct {
	reservations domain.ReservationService
	payments     domain.PaymentService
	loyalty      domain.LoyaltyService
	queue        domain.CompensationQueue
	px           Proxies
}

func NewBookingService(
	res domain.ReservationService,
	pay domain.PaymentService,
	loy domain.LoyaltyService,
	queue domain.CompensationQueue,
	px Proxies,
) *BookingService {
	return &BookingService{reservations: res, payments: pay, loyalty: loy, queue: queue, px: px}
}

// Price computes the total booking price with integer truncation.
func Price(pricePerNight, nights, discountPercent int) int {
	return pricePerNight * nights * (100 - discountPercent) / 100
}

// CreateBooking runs the booking creation saga:
//
//  1. fetch the hotel (abort on not-found, nothing committed yet)
//  2. fetch the loyalty discount, degrading to zero if loyalty is down
//  3. compute the price
//  4. create the payment (abort on failure, nothing to undo)
//  5. bump the loyalty counter; on failure cancel the payment and abort
//  6. write the reservation carrying the payment reference
//
// If step 6 fails the paid payment and the counter bump are left in place;
// there is deliberately no compensation for the final step (see DESIGN.md),
// so the gap is logged instead of silently repaired.
func (s *BookingService) CreateBooking(ctx context.Context, user, token string, req domain.BookingRequest) (domain.Booking, error) {
	if uuid.Validate(req.HotelUID) != nil {
		return domain.Booking{}, domain.ErrInvalidInput
	}
	nights, err := req.Nights()
	if err != nil {
		return domain.Booking{}, err
	}

	hotel, err := breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) (domain.Hotel, error) {
		return s.reservations.GetHotel(ctx, token, req.HotelUID)
	})
	if err != nil {
		return domain.Booking{}, err
	}

	loyVal, loyErr := breaker.Do(ctx, s.px.Loyalty, func(ctx context.Context) (domain.Loyalty, error) {
		return s.loyalty.GetLoyalty(ctx, token)
	})
	loy, err := breaker.Fallback(loyVal, loyErr, domain.Loyalty{})
	if err != nil {
		return domain.Booking{}, err
	}

	price := Price(hotel.Price, nights, loy.Discount)

	payment, err := breaker.Do(ctx, s.px.Payment, func(ctx context.Context) (domain.Payment, error) {
		return s.payments.CreatePayment(ctx, token, price)
	})
	if err != nil {
		return domain.Booking{}, err
	}

	if err := breaker.Exec(ctx, s.px.Loyalty, func(ctx context.Context) error {
		return s.loyalty.UpdateLoyalty(ctx, user, 1)
	}); err != nil {
		// Compensate the committed payment, best effort: if the cancel also
		// fails the payment is orphaned and the original error still wins.
		if cerr := breaker.Exec(ctx, s.px.Payment, func(ctx context.Context) error {
			return s.payments.CancelPayment(ctx, token, payment.PaymentUID)
		}); cerr != nil {
			log.Error().Err(cerr).
				Str("payment_uid", payment.PaymentUID).
				Str("user", user).
				Msg("payment cancel compensation failed, payment orphaned")
		}
		return domain.Booking{}, err
	}

	res, err := breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) (domain.Reservation, error) {
		return s.reservations.CreateReservation(ctx, token, domain.ReservationDraft{
			HotelUID:   req.HotelUID,
			PaymentUID: payment.PaymentUID,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			Status:     domain.StatusPaid,
		})
	})
	if err != nil {
		log.Error().Err(err).
			Str("payment_uid", payment.PaymentUID).
			Str("user", user).
			Msg("reservation create failed after payment committed")
		return domain.Booking{}, err
	}

	return domain.Booking{
		ReservationUID: res.ReservationUID,
		HotelUID:       req.HotelUID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Discount:       loy.Discount,
		Status:         res.Status,
		Payment:        domain.PaymentInfo{Status: payment.Status, Price: payment.Price},
	}, nil
}

// CancelBooking runs the cancellation saga:
//
//  1. look up the reservation (404 if absent)
//  2. cancel the payment (abort on failure)
//  3. decrement the loyalty counter; if loyalty is down the decrement is
//     deferred to the compensation queue and cancellation proceeds
//  4. mark the reservation canceled
//
// A step-4 failure leaves a canceled payment next to a live reservation;
// like the create saga's last step this asymmetry is preserved and logged.
func (s *BookingService) CancelBooking(ctx context.Context, user, token, reservationUID string) error {
	if uuid.Validate(reservationUID) != nil {
		return domain.ErrInvalidInput
	}

	res, err := breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) (domain.Reservation, error) {
		return s.reservations.GetReservation(ctx, token, reservationUID)
	})
	if err != nil {
		return err
	}

	if err := breaker.Exec(ctx, s.px.Payment, func(ctx context.Context) error {
		return s.payments.CancelPayment(ctx, token, res.PaymentUID)
	}); err != nil {
		return err
	}

	if err := breaker.Exec(ctx, s.px.Loyalty, func(ctx context.Context) error {
		return s.loyalty.UpdateLoyalty(ctx, user, -1)
	}); err != nil {
		task := domain.CompensationTask{Type: domain.TaskUpdateLoyalty, Username: user, Delta: -1}
		if qerr := s.queue.Enqueue(ctx, task); qerr != nil {
			// Queue down too: the decrement is lost. Loud log, cancellation
			// still must not block on loyalty.
			log.Error().Err(qerr).Str("user", user).Msg("loyalty decrement lost, compensation enqueue failed")
		} else {
			log.Warn().Err(err).Str("user", user).Msg("loyalty decrement deferred to compensation queue")
		}
	}

	if err := breaker.Exec(ctx, s.px.Reservation, func(ctx context.Context) error {
		return s.reservations.CancelReservation(ctx, token, reservationUID)
	}); err != nil {
		log.Error().Err(err).
			Str("reservation_uid", reservationUID).
			Msg("reservation cancel failed after payment canceled")
		return err
	}
	return nil
}
