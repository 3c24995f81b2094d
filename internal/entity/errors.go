package entity

import (
	"github.com/cockroachdb/errors"
)

// Error categories. Every error returned by a ledger operation is marked with
// exactly one of these, so callers can branch on errors.Is(err, ErrAuthorization)
// while still matching the concrete sentinel.
var (
	ErrValidation      = errors.New("validation error")
	ErrAuthorization   = errors.New("authorization error")
	ErrStateConflict   = errors.New("state conflict")
	ErrPaymentMismatch = errors.New("payment mismatch")
)

func Validation(err error) error {
	return errors.Mark(err, ErrValidation)
}

func Authorization(err error) error {
	return errors.Mark(err, ErrAuthorization)
}

func StateConflict(err error) error {
	return errors.Mark(err, ErrStateConflict)
}

func PaymentMismatch(err error) error {
	return errors.Mark(err, ErrPaymentMismatch)
}

// Category returns the category sentinel err is marked with, or nil.
func Category(err error) error {
	for _, c := range []error{ErrValidation, ErrAuthorization, ErrStateConflict, ErrPaymentMismatch} {
		if errors.Is(err, c) {
			return c
		}
	}

	return nil
}
