package database

import "context"

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check pings every dependency and returns the name of each one that failed
// with its error.
func Check(ctx context.Context, deps map[string]Pinger) map[string]error {
	failed := make(map[string]error)
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err
		}
	}
	return failed
}
