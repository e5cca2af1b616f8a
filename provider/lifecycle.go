package provider

import "context"

// Initializable is implemented by providers that need setup before their
// first request, such as checking that an interpreter or binary exists.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable is implemented by providers that hold resources until shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}

// Init runs p.Init when p implements Initializable.
func Init(ctx context.Context, p any) error {
	if i, ok := p.(Initializable); ok {
		return i.Init(ctx)
	}
	return nil
}

// Close runs p.Close when p implements Closeable.
func Close(ctx context.Context, p any) error {
	if c, ok := p.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
