package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"booking_gateway/internal/breaker"
	"booking_gateway/internal/domain"
)

// maxPaymentLookups bounds concurrent payment enrichment calls per request.
const maxPaymentLookups = 4

// QueryService serves the gateway's read paths. Every downstream call goes
// through the same breakers as the sagas; payment and loyalty lookups
// degrade to empty values when their service is down.
type QueryService struct {
	reservations domain.ReservationService
	payments     domain.PaymentService
	loyalty      domain.LoyaltyService
	px           Proxies
}

func NewQueryService(
	res domain.ReservationService,
	pay domain.PaymentService,
	loy domain.LoyaltyService,
	px Proxies,
) *QueryService {
	return &QueryService{reservations: res, payments: pay, loyalty: loy, px: px}
}

func (s *QueryService) ListHotels(ctx context.Context, token string, page, size int) (domain.HotelsPage, error) {
	if page < 0 || size < 1 || size > 100 {
		return domain.HotelsPage{}, domain.ErrInvalidInput
	}
	return breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) (domain.HotelsPage, error) {
		return s.reservations.ListHotels(ctx, token, page, size)
	})
}

func (s *QueryService) UserInfo(ctx context.Context, token string) (domain.UserInfo, error) {
	views, err := s.Reservations(ctx, token)
	if err != nil {
		return domain.UserInfo{}, err
	}
	loy, err := s.LoyaltyStatus(ctx, token)
	if err != nil {
		return domain.UserInfo{}, err
	}
	return domain.UserInfo{Reservations: views, Loyalty: loy}, nil
}

func (s *QueryService) Reservations(ctx context.Context, token string) ([]domain.ReservationView, error) {
	rs, err := breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) ([]domain.Reservation, error) {
		return s.reservations.ListReservations(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, token, rs), nil
}

func (s *QueryService) Reservation(ctx context.Context, token, reservationUID string) (domain.ReservationView, error) {
	if uuid.Validate(reservationUID) != nil {
		return domain.ReservationView{}, domain.ErrInvalidInput
	}
	r, err := breaker.Do(ctx, s.px.Reservation, func(ctx context.Context) (domain.Reservation, error) {
		return s.reservations.GetReservation(ctx, token, reservationUID)
	})
	if err != nil {
		return domain.ReservationView{}, err
	}
	views := s.enrich(ctx, token, []domain.Reservation{r})
	return views[0], nil
}

func (s *QueryService) LoyaltyStatus(ctx context.Context, token string) (domain.Loyalty, error) {
	loy, err := breaker.Do(ctx, s.px.Loyalty, func(ctx context.Context) (domain.Loyalty, error) {
		return s.loyalty.GetLoyalty(ctx, token)
	})
	return breaker.Fallback(loy, err, domain.Loyalty{})
}

// enrich attaches payment info to each reservation, with bounded fan-out.
// A payment lookup that fails (service down, row missing) yields a nil
// payment rather than failing the whole read.
func (s *QueryService) enrich(ctx context.Context, token string, rs []domain.Reservation) []domain.ReservationView {
	views := make([]domain.ReservationView, len(rs))
	sem := semaphore.NewWeighted(maxPaymentLookups)
	var wg sync.WaitGroup

	for i, r := range rs {
		views[i] = domain.ReservationView{
			ReservationUID: r.ReservationUID,
			Hotel:          r.Hotel,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			Status:         r.Status,
		}
		if r.PaymentUID == "" {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break // request context gone; return what we have
		}
		wg.Add(1)
		go func(i int, paymentUID string) {
			defer wg.Done()
			defer sem.Release(1)
			p, err := breaker.Do(ctx, s.px.Payment, func(ctx context.Context) (domain.Payment, error) {
				return s.payments.GetPayment(ctx, token, paymentUID)
			})
			if err == nil {
				views[i].Payment = &domain.PaymentInfo{Status: p.Status, Price: p.Price}
			}
		}(i, r.PaymentUID)
	}
	wg.Wait()
	return views
}
