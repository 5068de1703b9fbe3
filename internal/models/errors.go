package models

import "fmt"

// RewriteError is returned when the external rewrite call fails or its
// output cannot be used.
type RewriteError struct {
	Reason string
	Err    error
}

func (e *RewriteError) Error() string {
	if e.Err == nil {
		return "rewrite failed: " + e.Reason
	}
	return fmt.Sprintf("rewrite failed: %s: %v", e.Reason, e.Err)
}

func (e *RewriteError) Unwrap() error { return e.Err }

// TransportError wraps a failed chat transport call.
type TransportError struct {
	Op  string // post, delete, send, answer
	Ref MessageRef
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s (chat %d, msg %d): %v", e.Op, e.Ref.ChatID, e.Ref.MessageID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
