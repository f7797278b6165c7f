package web

import (
	"errors"
	"net/http"

	"listingmatch/internal/review"
	"listingmatch/internal/table"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrNoTable       = errors.New("no table loaded")
	ErrNoMapping     = errors.New("column mapping not set")
	ErrBadRow        = errors.New("row out of range")
)

// HTTPStatus returns the status code to answer err with.
func HTTPStatus(err error) int {
	var unknown *review.ErrUnknownColumn
	var invalid *review.ErrValidation
	var tooLarge *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, table.ErrUnparsable), errors.Is(err, table.ErrNoHeader),
		errors.Is(err, http.ErrMissingFile), errors.Is(err, ErrBadRow),
		errors.As(err, &unknown), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoTable), errors.Is(err, ErrNoMapping):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
