package client

import (
	"errors"
	"fmt"

	"github.com/luma/fcp/event"
)

var (
	ErrNotConnected        = errors.New("not connected to the node")
	ErrAlreadyConnected    = errors.New("already connected to the node")
	ErrConnectionClosed    = errors.New("connection closed")
	ErrDuplicateClientName = errors.New("connection closed by the node: duplicate client name")
	ErrRedirectLoop        = errors.New("redirect loop")
	ErrUnknownPeer         = errors.New("the node does not know the peer")
)

// ConnectionClosedError fails every call that was pending when the
// connection closed. Cause is nil for clean or local closes.
type ConnectionClosedError struct {
	Cause error
}

func (e *ConnectionClosedError) Error() string {
	if e.Cause == nil {
		return ErrConnectionClosed.Error()
	}

	return fmt.Sprintf("%s: %s", ErrConnectionClosed, e.Cause)
}

func (e *ConnectionClosedError) Unwrap() error {
	return e.Cause
}

func (e *ConnectionClosedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

// ProtocolError is a structured error reported by the node.
type ProtocolError struct {
	Code             int
	CodeDescription  string
	ExtraDescription string
	Fatal            bool
	Global           bool
	Identifier       string
}

func newProtocolError(e *event.ProtocolError) *ProtocolError {
	return &ProtocolError{
		Code:             e.Code(),
		CodeDescription:  e.CodeDescription(),
		ExtraDescription: e.ExtraDescription(),
		Fatal:            e.Fatal(),
		Global:           e.Global(),
		Identifier:       e.Identifier(),
	}
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("protocol error %d: %s", e.Code, e.CodeDescription)
	if e.ExtraDescription != "" {
		msg += " (" + e.ExtraDescription + ")"
	}

	return msg
}
