package srv

import "context"

// Cleanup is a Service that only releases a resource on shutdown.
type Cleanup func() error

func (c Cleanup) Start(context.Context) error { return nil }

func (c Cleanup) Shutdown(context.Context) error {
	if c == nil {
		return nil
	}
	return c()
}

func NewCleanup(fn func() error) Service {
	return Cleanup(fn)
}
