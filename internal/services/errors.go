package services

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrGiftNotFound = errors.New("gift not found")
	ErrListNotFound = errors.New("list not found")

	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrForbidden is returned when the actor lacks rights on the target
	// entity. Handlers map it to 403, never to 404, so it does not leak
	// whether the entity exists.
	ErrForbidden = errors.New("operation not allowed")

	ErrValidation = errors.New("invalid request")

	ErrSelfReservation = errors.New("cannot reserve your own gift")
	ErrAlreadyReserved = errors.New("already reserved or participating in this gift")
	ErrNotReserved     = errors.New("gift is not reserved by this user")

	// ErrReservationConflict means a concurrent update won the race and the
	// operation could not be applied to the state it observed. Callers retry.
	ErrReservationConflict = errors.New("gift was modified concurrently")
)
