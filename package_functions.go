package hostreq

import (
	"context"
)

// DefaultConfig is the singleton used by the package-level Dispatch/Send/Receive functions.
// It has no Host: install one with WithHost, or set DefaultConfig.Host.
// nolint:gochecknoglobals
var DefaultConfig = Config{}

// Send does the same as Config.Send(), using the DefaultConfig.
func Send(ctx context.Context, opts ...Option) (*Response, error) {
	return DefaultConfig.Send(ctx, opts...)
}

// Receive does the same as Config.Receive(), using the DefaultConfig.
func Receive(ctx context.Context, into interface{}, opts ...Option) (*Response, error) {
	return DefaultConfig.Receive(ctx, into, opts...)
}
