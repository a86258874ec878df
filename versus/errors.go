package versus

import "errors"

var (
	// ErrVersionMismatch reports peers speaking different protocol versions
	ErrVersionMismatch = errors.New("protocol version mismatch")
	// ErrUnexpectedMessage reports a message that is invalid at the current step
	ErrUnexpectedMessage = errors.New("unexpected message")
	// ErrPeerLeft reports a graceful Disconnect from the opponent
	ErrPeerLeft = errors.New("opponent left")
)
