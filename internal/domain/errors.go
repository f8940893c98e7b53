package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UnavailableError marks a downstream dependency as unreachable, either
// because its circuit breaker refused the call or because the call itself
// failed. It carries the dependency name for the 503 response body.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s service unavailable", e.Service)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Title returns the user-facing message, e.g. "Loyalty Service unavailable".
func (e *UnavailableError) Title() string {
	return capitalize(e.Service) + " Service unavailable"
}

func Unavailable(service string, err error) error {
	return &UnavailableError{Service: service, Err: err}
}

func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
