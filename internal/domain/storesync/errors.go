package storesync

import "errors"

var ErrBadRequest = errors.New("bad request")

// requestError is a 400 whose text is returned to the caller verbatim.
type requestError struct{ msg string }

func (e *requestError) Error() string        { return e.msg }
func (e *requestError) Is(target error) bool { return target == ErrBadRequest }

func badRequest(msg string) error { return &requestError{msg: msg} }

var (
	ErrInvalidJSON         = badRequest("Invalid JSON body")
	ErrMissingFields       = badRequest("Missing required fields")
	ErrMissingPaymentID    = badRequest("Missing payment id")
	ErrMissingOrderID      = badRequest("Missing order id")
	ErrUnsupportedResource = badRequest("Unsupported resource")
)

func IsErrBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
