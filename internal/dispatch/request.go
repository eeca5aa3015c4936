package dispatch

import (
	"errors"
	"io"
	"net"
)

const (
	// RequestSize is the fixed wire size of a request: one ASCII type tag
	// followed by one ASCII size digit.
	RequestSize = 2

	// MaxResponseSize bounds the single backend read per request. Responses
	// are relayed verbatim up to this many bytes, no framing.
	MaxResponseSize = 1024
)

// ErrMalformed is returned for a request whose type tag or size digit is
// outside the protocol. Malformed requests never reach the scheduler.
var ErrMalformed = errors.New("malformed request")

// Request is one decoded client request. It lives only for the duration of a
// single dispatch; there is no persisted identity.
type Request struct {
	// Raw is the original wire form, forwarded verbatim to the backend.
	Raw [RequestSize]byte

	// Type is the request type tag: 'M', 'V', or 'P'.
	Type byte

	// Size is the relative request size, 1 through 9.
	Size int
}

// ReadRequest reads exactly one 2-byte request from conn and validates it.
// A short read or disconnect is returned as the underlying I/O error; a
// well-framed but invalid request returns ErrMalformed. Either way the caller
// aborts without scheduling.
func ReadRequest(conn net.Conn) (Request, error) {
	var req Request
	if _, err := io.ReadFull(conn, req.Raw[:]); err != nil {
		return Request{}, err
	}

	switch req.Raw[0] {
	case 'M', 'V', 'P':
		req.Type = req.Raw[0]
	default:
		return Request{}, ErrMalformed
	}

	if req.Raw[1] < '1' || req.Raw[1] > '9' {
		return Request{}, ErrMalformed
	}
	req.Size = int(req.Raw[1] - '0')

	return req, nil
}
