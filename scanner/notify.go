package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/metrics"
)

const (
	notifyBuffer = 16
	sinkTimeout  = 5 * time.Second
)

// Sink receives the found records. Delivery failures are logged and never affect the scan.
type Sink interface {
	Name() string
	Found(ctx context.Context, f types.Found) error
}

// notifier delivers found records to the sinks from its own routine so pollers never wait on a sink.
type notifier struct {
	sinks []Sink
	m     *metrics.Metrics
	ch    chan types.Found
	quit  chan struct{}
	done  chan struct{}
}

func newNotifier(sinks []Sink, m *metrics.Metrics) *notifier {
	n := &notifier{
		sinks: sinks,
		m:     m,
		ch:    make(chan types.Found, notifyBuffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go n.loop()

	return n
}

// notify queues f, dropping it if the queue is full.
func (n *notifier) notify(f types.Found) {
	if len(n.sinks) == 0 {
		return
	}

	select {
	case n.ch <- f:
	default:
		n.m.Dropped()
		log.Warn().Str("chain", f.Chain).Str("address", f.Address).Msg("Found event dropped, notifier busy")
	}
}

func (n *notifier) loop() {
	defer close(n.done)

	for {
		select {
		case f := <-n.ch:
			n.deliver(f)
		case <-n.quit:
			// deliver what is already queued
			for {
				select {
				case f := <-n.ch:
					n.deliver(f)
				default:
					return
				}
			}
		}
	}
}

func (n *notifier) deliver(f types.Found) {
	for _, s := range n.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)

		if err := s.Found(ctx, f); err != nil {
			n.m.SinkError(s.Name())
			log.Error().Err(err).Str("sink", s.Name()).Str("chain", f.Chain).Msg("Error delivering found event")
		}

		cancel()
	}
}

// close stops the notifier once the queued records are delivered, waiting at most timeout.
func (n *notifier) close(timeout time.Duration) {
	close(n.quit)

	select {
	case <-n.done:
	case <-time.After(timeout):
		log.Warn().Msg("Found events still being delivered. Abandoning them")
	}
}
