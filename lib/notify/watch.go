package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/msg"
)

// Handler receives the found events consumed from the broker.
type Handler interface {
	Name() string
	Found(ctx context.Context, f types.Found) error
}

// Watch consumes the found events of every chain from mb and hands them to the handlers until ctx is cancelled or
// the broker closes the queues. For each chain two routines are started, one for events and one for errors. An event
// is acknowledged once all handlers are done with it. If a chain cannot be consumed, the chains already started are
// stopped before the error is returned.
func Watch(ctx context.Context, mb msg.MsgBroker, chains []string, handlers ...Handler) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	for _, chain := range chains {
		mut := new(sync.Mutex)
		mut.Lock()

		eveCh, errCh, err := mb.GetFound(wctx, chain, mut)
		if err != nil {
			log.Error().Err(err).Str("chain", chain).Msg("Cannot consume found events")
			cancel()
			wg.Wait()

			return err
		}

		wg.Add(2)

		// launch event channel reader
		go func(chain string) {
			defer wg.Done()

			log.Info().Str("chain", chain).Msg("Start listening to found events")

			for {
				select {
				case <-wctx.Done():
					return
				case f, ok := <-eveCh:
					if !ok {
						log.Info().Str("chain", chain).Msg("Stop listening to found events")

						return
					}

					handle(wctx, f, handlers)
					mut.Unlock()
				}
			}
		}(chain)

		// launch error channel reader
		go func(chain string) {
			defer wg.Done()

			for {
				select {
				case <-wctx.Done():
					return
				case e, ok := <-errCh:
					if !ok {
						return
					}

					log.Error().Err(e).Str("chain", chain).Msg("Received bad found event")
				}
			}
		}(chain)
	}

	wg.Wait()

	return ctx.Err()
}

func handle(ctx context.Context, f types.Found, handlers []Handler) {
	log.Info().Str("chain", f.Chain).Str("address", f.Address).Str("usd", f.USD.StringFixed(2)).
		Msg("Found event received")

	for _, h := range handlers {
		if err := h.Found(ctx, f); err != nil {
			log.Error().Err(err).Str("sink", h.Name()).Msg("Error handling found event")
		}
	}
}
