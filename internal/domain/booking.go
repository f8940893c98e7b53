package domain

import "time"

type ReservationStatus string

const (
	StatusPaid     ReservationStatus = "PAID"
	StatusReserved ReservationStatus = "RESERVED"
	StatusCanceled ReservationStatus = "CANCELED"
)

type LoyaltyLevel string

const (
	LevelBronze LoyaltyLevel = "BRONZE"
	LevelSilver LoyaltyLevel = "SILVER"
	LevelGold   LoyaltyLevel = "GOLD"
)

// Hotel is the reservation service's view of a bookable property.
type Hotel struct {
	HotelUID string `json:"hotelUid"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Address  string `json:"address"`
	Stars    int    `json:"stars"`
	Price    int    `json:"price"` // per night
}

type HotelsPage struct {
	Page          int     `json:"page"`
	PageSize      int     `json:"pageSize"`
	TotalElements int     `json:"totalElements"`
	Items         []Hotel `json:"items"`
}

// HotelInfo is the denormalized hotel snapshot embedded in a reservation.
type HotelInfo struct {
	HotelUID    string `json:"hotelUid"`
	Name        string `json:"name"`
	FullAddress string `json:"fullAddress"`
	Stars       int    `json:"stars"`
}

type Payment struct {
	PaymentUID string            `json:"paymentUid,omitempty"`
	Status     ReservationStatus `json:"status"`
	Price      int               `json:"price"`
}

// PaymentInfo is the payment slice of a reservation view. It is nil when the
// payment service is unavailable and the caller opted into the fallback.
type PaymentInfo struct {
	Status ReservationStatus `json:"status"`
	Price  int               `json:"price"`
}

type Loyalty struct {
	Status           LoyaltyLevel `json:"status,omitempty"`
	Discount         int          `json:"discount"`
	ReservationCount int          `json:"reservationCount"`
}

type Reservation struct {
	ReservationUID string            `json:"reservationUid"`
	PaymentUID     string            `json:"paymentUid"`
	Hotel          HotelInfo         `json:"hotel"`
	StartDate      string            `json:"startDate"` // YYYY-MM-DD
	EndDate        string            `json:"endDate"`
	Status         ReservationStatus `json:"status"`
}

// ReservationView is a reservation enriched with its payment info for responses.
type ReservationView struct {
	ReservationUID string            `json:"reservationUid"`
	Hotel          HotelInfo         `json:"hotel"`
	StartDate      string            `json:"startDate"`
	EndDate        string            `json:"endDate"`
	Status         ReservationStatus `json:"status"`
	Payment        *PaymentInfo      `json:"payment"`
}

type UserInfo struct {
	Reservations []ReservationView `json:"reservations"`
	Loyalty      Loyalty           `json:"loyalty"`
}

// BookingRequest is the gateway-facing input for creating a booking.
type BookingRequest struct {
	HotelUID  string `json:"hotelUid"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Nights returns the whole-day span of the booking, or an error if either
// date is malformed.
func (r BookingRequest) Nights() (int, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return 0, ErrInvalidInput
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return 0, ErrInvalidInput
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights <= 0 {
		return 0, ErrInvalidInput
	}
	return nights, nil
}

// Booking is the confirmed descriptor returned by the create saga.
type Booking struct {
	ReservationUID string            `json:"reservationUid"`
	HotelUID       string            `json:"hotelUid"`
	StartDate      string            `json:"startDate"`
	EndDate        string            `json:"endDate"`
	Discount       int               `json:"discount"`
	Status         ReservationStatus `json:"status"`
	Payment        PaymentInfo       `json:"payment"`
}

// ReservationDraft is what the saga hands to the reservation service once
// payment has been committed.
type ReservationDraft struct {
	HotelUID   string            `json:"hotelUid"`
	PaymentUID string            `json:"paymentUid"`
	StartDate  string            `json:"startDate"`
	EndDate    string            `json:"endDate"`
	Status     ReservationStatus `json:"status"`
}

const TaskUpdateLoyalty = "update_loyalty"

// CompensationTask is a durable record of a compensation step that failed
// synchronously and must be retried out of band. Delivery is at-least-once;
// the encoded effect may be applied more than once on redelivery.
type CompensationTask struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Delta    int    `json:"delta"`
	Attempts int    `json:"attempts"`
}
