package checkout

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/clinicshop/storefront/internal/backend"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionInProgress = errors.New("checkout already in progress for this cart")
	ErrIllegalTransition    = errors.New("illegal transition of checkout status")
	ErrMissingToken         = errors.New("sign in required to place an order")
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNetwork        Kind = "network"
	KindApplication    Kind = "application"
)

const (
	msgValidation     = "Please correct the highlighted fields."
	msgAuthentication = "Your session has expired. Please sign in to continue."
	msgNetwork        = "We couldn't reach the store. Please check your connection and try again."
	msgApplication    = "We couldn't place your order. Please try again."
)

// Error is a failed submission reduced to one user-facing message.
type Error struct {
	Kind             Kind
	Message          string
	Fields           map[string]string
	RedirectToSignIn bool
	Err              error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify inspects what kind of failure err is. It looks at the transport
// signals first, so a network failure is never mistaken for an API rejection.
func Classify(err error) Kind {
	var checkoutErr *Error
	if errors.As(err, &checkoutErr) {
		return checkoutErr.Kind
	}
	if errors.Is(err, ErrMissingToken) || errors.Is(err, backend.ErrUnauthorized) {
		return KindAuthentication
	}
	if errors.Is(err, backend.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindApplication
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var checkoutErr *Error
	if errors.As(err, &checkoutErr) && checkoutErr.Message != "" {
		return checkoutErr.Message
	}

	switch Classify(err) {
	case KindValidation:
		return msgValidation
	case KindAuthentication:
		return msgAuthentication
	case KindNetwork:
		return msgNetwork
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgApplication
}

func newFailure(err error) *Error {
	kind := Classify(err)
	return &Error{
		Kind:             kind,
		Message:          Message(err),
		RedirectToSignIn: kind == KindAuthentication,
		Err:              err,
	}
}
