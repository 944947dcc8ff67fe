package netlog

// DropReason tells a DiscardObserver why a message was not queued
type DropReason int

const (
	// DropOverflow means the message did not fit in the remaining pending buffer
	DropOverflow DropReason = iota
	// DropClosed means the writer was already closed
	DropClosed
)

func (r DropReason) String() string {
	switch r {
	case DropOverflow:
		return "overflow"
	case DropClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DiscardObserver is notified synchronously, on the calling goroutine, of every dropped message.
// msg is the caller's buffer and must not be retained.
type DiscardObserver interface {
	OnDiscard(msg []byte, reason DropReason)
}

// DiscardFunc adapts a function to DiscardObserver
type DiscardFunc func(msg []byte, reason DropReason)

func (f DiscardFunc) OnDiscard(msg []byte, reason DropReason) {
	f(msg, reason)
}
