package forwarder

import "context"

// Transport delivers one command to the smart-home endpoint.
//
// Implementations must return promptly once ctx is done. Forwarder stops
// waiting at its deadline, but a Send that ignores ctx keeps its goroutine
// running until it returns on its own.
type Transport interface {
	Send(ctx context.Context, command string) (string, error)
}

// Ensure HTTPTransport implements Transport.
var _ Transport = (*HTTPTransport)(nil)
