package collector

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a response that decoded but failed schema validation.
var ErrMalformed = errors.New("malformed response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}
