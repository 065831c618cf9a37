package health

import "context"

// Pinger checks availability of one component.
type Pinger interface {
	Ping(ctx context.Context) error
}
