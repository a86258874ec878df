package network

import (
	"errors"
)

var (
	// ErrPeerDisconnected reports a closed or reset stream, including a zero-byte read
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrFrameTooLarge reports a length prefix above MaxFrameSize
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrMalformedPayload reports a frame whose payload does not decode
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnknownMessage reports a well-formed envelope with an unrecognized type
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrTimeout reports a blocking receive that ran out of time
	ErrTimeout = errors.New("receive timed out")
	// ErrClosed reports use of a connection after Close
	ErrClosed = errors.New("connection closed")
)

// IsFatal reports whether err ends the connection. Timeouts are not fatal on
// their own; the caller decides whether to keep waiting
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTimeout)
}
