// Package classify maps delivery outcomes to retry semantics.
package classify

import (
	"errors"
	"net/http"

	"github.com/telhawk-systems/telhawk-edge/device/internal/transport"
)

// Class is the retry semantics of one delivery attempt's outcome.
type Class int

const (
	// Success means the message's effect is durable at the edge.
	Success Class = iota
	// Transient means the attempt failed in a way worth retrying.
	Transient
	// Terminal means retrying cannot help.
	Terminal
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classify interprets the outcome of one transport attempt. Precedence:
//
//  1. Transport timeouts and connection failures are transient.
//  2. 200 is success.
//  3. 409 is success: the duplicate acknowledgment means the message was
//     already durably accepted.
//  4. 429/503/504 are transient (server backpressure).
//  5. 400/401/403 are terminal (validation/auth; retrying cannot help).
//  6. Everything else fails closed as terminal.
func Classify(res *transport.Result, err error) Class {
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) || errors.Is(err, transport.ErrConnection) {
			return Transient
		}
		return Terminal
	}

	switch res.StatusCode {
	case http.StatusOK:
		return Success
	case http.StatusConflict:
		return Success
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Transient
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return Terminal
	default:
		return Terminal
	}
}
