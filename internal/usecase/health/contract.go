package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// TypeCounter reports how many tile types are registered.
type TypeCounter interface {
	Count() int
}
