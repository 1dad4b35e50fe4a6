// Package strategy implements the four trading strategies, each
// conforming to the shared scanAndExecute/close capability set (spec
// §4.5, §9 "Polymorphism across strategies").
package strategy

import "context"

// Strategy is the polymorphic interface the Scheduler dispatches
// concurrently every cycle.
type Strategy interface {
	Name() string
	ScanAndExecute(ctx context.Context) error
	Close() error
}
