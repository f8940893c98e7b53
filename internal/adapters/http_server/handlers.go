package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"booking_gateway/internal/app"
	"booking_gateway/internal/domain"
)

type Handlers struct {
	B *app.BookingService
	Q *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Auth)
		r.Get("/api/v1/hotels", h.listHotels)
		r.Get("/api/v1/me", h.userInfo)
		r.Get("/api/v1/loyalty", h.loyaltyStatus)
		r.Get("/api/v1/reservations", h.listReservations)
		r.Post("/api/v1/reservations", h.createBooking)
		r.Get("/api/v1/reservations/{reservationUid}", h.getReservation)
		r.Delete("/api/v1/reservations/{reservationUid}", h.cancelBooking)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain errors onto the 4xx/503 surface of the gateway.
func writeErr(w http.ResponseWriter, err error) {
	var ue *domain.UnavailableError
	switch {
	case errors.As(err, &ue):
		writeProblem(w, http.StatusServiceUnavailable, ue.Title(), "")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "page must be an integer")
			return
		}
		page = n
	}
	size := 1
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "size must be an integer")
			return
		}
		size = n
	}

	out, err := h.Q.ListHotels(r.Context(), p.Token, page, size)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) userInfo(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	out, err := h.Q.UserInfo(r.Context(), p.Token)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) loyaltyStatus(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	out, err := h.Q.LoyaltyStatus(r.Context(), p.Token)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	out, err := h.Q.Reservations(r.Context(), p.Token)
	if err != nil {
		writeErr(w, err)
		return
	}
	if out == nil {
		out = []domain.ReservationView{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	out, err := h.Q.Reservation(r.Context(), p.Token, chi.URLParam(r, "reservationUid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req domain.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	out, err := h.B.CreateBooking(r.Context(), p.User, p.Token, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	if err := h.B.CancelBooking(r.Context(), p.User, p.Token, chi.URLParam(r, "reservationUid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
