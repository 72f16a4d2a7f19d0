// Package msg defines the interface for different message brokers.
package msg

import (
	"context"
	"sync"

	"github.com/tarancss/chainscan/lib/block/types"
)

// Exchange where found events are published. Routing keys are <chain>.found.<address>.
const Exchange = "sf"

// MsgBroker publishes found events so other services can act on them.
type MsgBroker interface {
	Setup() error
	Close() error

	// methods for the scanner
	SendFound(f types.Found) error

	// methods for consumers of found events. Consuming stops when ctx is cancelled.
	GetFound(ctx context.Context, chain string, mut *sync.Mutex) (<-chan types.Found, <-chan error, error)
}
