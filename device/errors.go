package device

import "fmt"

// ReplyTooLargeError indicates an escaped reply would exceed the maximum
// message size. The reply is not sent; a truncated JSON document must never
// reach the host.
type ReplyTooLargeError struct {
	// Max is the configured maximum message size
	Max int
}

func (e *ReplyTooLargeError) Error() string {
	return fmt.Sprintf("reply exceeds maximum message size %d", e.Max)
}
