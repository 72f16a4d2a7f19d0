// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/lib/msg"
)

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection

	l  sync.Mutex // l guards ch
	ch *amqp.Channel
}

// New instantiates a new amqp broker.
func New(uri string) (*Amqp, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, errors.Wrap(err, "amqp dial")
	}

	log.Info().Msg("Connected to message broker")

	return &Amqp{conn: conn}, nil
}

var _ msg.MsgBroker = (*Amqp)(nil)

// Setup declares the message broker exchange:
//
// - sf ("scanner found"): the scanner publishes found events to this exchange
func (r *Amqp) Setup() error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "amqp channel")
	}
	defer channel.Close()

	return errors.Wrap(channel.ExchangeDeclare(msg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil),
		"declaring exchange")
}

// Close terminates gracefully the connection to the AMQP message broker
func (r *Amqp) Close() error {
	r.l.Lock()
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing amqp.Channel")
		}

		r.ch = nil
	}
	r.l.Unlock()

	return r.conn.Close()
}

// channel returns the reusable channel, opening it if not present.
func (r *Amqp) channel() (*amqp.Channel, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.ch == nil {
		ch, err := r.conn.Channel()
		if err != nil {
			return nil, errors.Wrap(err, "amqp channel")
		}

		r.ch = ch
	}

	return r.ch, nil
}

// drop discards a failed channel so the next call opens a new one.
func (r *Amqp) drop(ch *amqp.Channel) {
	r.l.Lock()
	if r.ch == ch {
		r.ch = nil
	}
	r.l.Unlock()
}

// RoutingKey returns the routing key of a found event.
func RoutingKey(f types.Found) string {
	return f.Chain + ".found." + f.Address
}

// SendFound publishes a found event to the "sf" exchange
func (r *Amqp) SendFound(f types.Found) error {
	jsonDoc, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "marshalling found event")
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}

	m := amqp.Publishing{
		Headers:     amqp.Table{"x-found-name": f.Chain + "." + f.Address},
		Body:        jsonDoc,
		ContentType: "application/json",
		Timestamp:   f.Time,
	}

	if err = ch.Publish(msg.Exchange, RoutingKey(f), false, false, m); err != nil {
		r.drop(ch)

		return errors.Wrapf(err, "[%s] publishing found event", f.Chain)
	}

	return nil
}

// GetFound consumes found events of chain from the "sf" exchange pushing them to the returned channel. The Mutex
// pointer is provided to ensure the consumed message has been fully dealt with by the management function, so the
// message consumed is only acknowledged when the mutex is unlocked. Both channels are closed when ctx is cancelled or
// the broker stops delivering.
func (r *Amqp) GetFound(ctx context.Context, chain string, mut *sync.Mutex) (<-chan types.Found, <-chan error, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, nil, err
	}

	queue := msg.Exchange + chain
	consumer := "scanner-" + chain

	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, nil, errors.Wrap(err, "declaring queue")
	}

	if err = ch.QueueBind(queue, chain+".found.*", msg.Exchange, false, nil); err != nil {
		return nil, nil, errors.Wrap(err, "binding queue")
	}

	msgs, err := ch.Consume(queue, consumer, false, false, false, false, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "consuming queue")
	}

	found := make(chan types.Found)
	errs := make(chan error)

	// routine to consume messages from broker
	go func() {
		defer close(errs)
		defer close(found)
		defer func() { _ = ch.Cancel(consumer, false) }()

		for {
			var m amqp.Delivery

			var ok bool

			select {
			case <-ctx.Done():
				return
			case m, ok = <-msgs:
				if !ok {
					return
				}
			}

			var f types.Found
			if err := json.Unmarshal(m.Body, &f); err != nil {
				_ = m.Nack(false, false)

				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}

				continue
			}

			f.Time = m.Timestamp

			select {
			case found <- f:
			case <-ctx.Done():
				_ = m.Nack(false, true) // requeue, nobody took it

				return
			}

			mut.Lock() // wait for the consumer to finish processing the event
			_ = m.Ack(false)
		}
	}()

	return found, errs, nil
}
