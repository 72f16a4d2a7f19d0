// Package notify implements the destinations of found events: the system clipboard, the message broker and the
// database.
package notify

import (
	"context"
	"encoding/json"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/msg"
	"github.com/tarancss/chainscan/lib/store"
)

// ErrNoClipboard is returned when the system has no clipboard utility available.
var ErrNoClipboard = errors.New("clipboard not supported on this system")

// Clipboard copies found records to the system clipboard as JSON.
type Clipboard struct {
	write func(string) error
}

// NewClipboard returns a Clipboard sink if the system clipboard is available.
func NewClipboard() (*Clipboard, error) {
	if clipboard.Unsupported {
		return nil, ErrNoClipboard
	}

	return &Clipboard{write: clipboard.WriteAll}, nil
}

// Name implements scanner.Sink.
func (c *Clipboard) Name() string { return "clipboard" }

// Found writes {"chain","address","balance","usd"} to the clipboard.
func (c *Clipboard) Found(_ context.Context, f types.Found) error {
	b, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "marshalling found record")
	}

	return errors.Wrap(c.write(string(b)), "writing clipboard")
}

// Broker publishes found records to a message broker.
type Broker struct {
	mb msg.MsgBroker
}

// NewBroker returns a sink publishing to mb.
func NewBroker(mb msg.MsgBroker) *Broker {
	return &Broker{mb: mb}
}

// Name implements scanner.Sink.
func (b *Broker) Name() string { return "broker" }

// Found publishes f. The broker client does not take a context, so ctx is only checked before publishing.
func (b *Broker) Found(ctx context.Context, f types.Found) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.mb.SendFound(f)
}

// Store saves found records to a database.
type Store struct {
	db store.DB
}

// NewStore returns a sink saving to db.
func NewStore(db store.DB) *Store {
	return &Store{db: db}
}

// Name implements scanner.Sink.
func (s *Store) Name() string { return "store" }

// Found saves f.
func (s *Store) Found(ctx context.Context, f types.Found) error {
	return s.db.SaveFound(ctx, f)
}
