package service

import (
	"errors"
	"fmt"
)

// Error kinds of the realtime protocol. Every *SyncError matches exactly one
// of these with errors.Is.
var (
	ErrProtocol      = errors.New("protocol error")
	ErrAuthorization = errors.New("authorization error")
	ErrNotFound      = errors.New("not found")
	ErrPersistence   = errors.New("persistence error")
)

// SyncError is a failure handling one inbound frame. Reason is what the
// sender sees in the ERROR frame.
type SyncError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) Is(target error) bool {
	return target == e.Kind
}

func protocolError(reason string, err error) error {
	return &SyncError{Kind: ErrProtocol, Reason: reason, Err: err}
}

func authorizationError(reason string) error {
	return &SyncError{Kind: ErrAuthorization, Reason: reason}
}

func notFoundError(reason string) error {
	return &SyncError{Kind: ErrNotFound, Reason: reason}
}

func persistenceError(reason string, err error) error {
	return &SyncError{Kind: ErrPersistence, Reason: reason, Err: err}
}

// errorKindLabel names the kind of err for logs and metrics.
func errorKindLabel(err error) string {
	switch {
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "internal"
}
