package health

import "context"

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}
