package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure. Every kind is terminal and caller-facing;
// nothing here represents a transient fault.
type Kind string

const (
	KindInternal         Kind = "internal"
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindNotPublished     Kind = "not_published"
	KindValidation       Kind = "validation"
	KindInvalidPrice     Kind = "invalid_price"
	KindHasPurchases     Kind = "has_purchases"
)

type Error struct {
	Kind    Kind
	Message string
	Field   string // set for validation failures
	Value   int64  // rejected price, or blocking purchase count
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind onto the wire-level status the handlers use.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied, KindNotPublished:
		return http.StatusForbidden
	case KindValidation, KindInvalidPrice:
		return http.StatusBadRequest
	case KindHasPurchases:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func PermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

func NotPublished() *Error {
	return &Error{Kind: KindNotPublished, Message: "lesson is not published"}
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func InvalidPrice(value int64) *Error {
	return &Error{
		Kind:    KindInvalidPrice,
		Field:   "price_cents",
		Value:   value,
		Message: fmt.Sprintf("price %d is out of range", value),
	}
}

func HasPurchases(count int64) *Error {
	return &Error{
		Kind:    KindHasPurchases,
		Value:   count,
		Message: fmt.Sprintf("lesson has %d completed purchase(s) and cannot be deleted", count),
	}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf extracts the kind from any error in the chain, KindInternal when
// the error is not one of ours.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
