package alerts

import "errors"

var (
	// ErrNoTransport is reported when a dispatcher has nowhere to send.
	ErrNoTransport = errors.New("no notification transport configured")
)
