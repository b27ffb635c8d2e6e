package live

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Feed subscribes the board to the backend's row-level change stream over
// RabbitMQ. Deliveries are consumed one at a time (prefetch 1) and dispatched
// in arrival order; a malformed message is acked and dropped so one bad row
// cannot wedge the queue.
type Feed struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	started bool
	done    chan struct{}
}

func NewFeed(url, queue string) (*Feed, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("feed dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("feed channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("feed queue declare: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("feed qos: %w", err)
	}
	return &Feed{conn: conn, ch: ch, queue: queue, done: make(chan struct{})}, nil
}

// Subscribe starts the delivery loop. It returns once consuming is set up;
// the loop runs until Close or context cancellation.
func (f *Feed) Subscribe(ctx context.Context, board *Board) error {
	msgs, err := f.ch.Consume(f.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("feed consume: %w", err)
	}
	f.started = true
	go f.run(ctx, board, msgs)
	log.Printf("[feed] subscribed to %s", f.queue)
	return nil
}

func (f *Feed) run(ctx context.Context, board *Board, msgs <-chan amqp.Delivery) {
	defer close(f.done)
	for {
		select {
		case <-ctx.Done():
			return
		case d, open := <-msgs:
			if !open {
				log.Printf("[feed] delivery channel closed")
				return
			}
			ev, err := ParseEvent(d.Body)
			if err != nil {
				log.Printf("[feed] dropping message: %v", err)
				_ = d.Ack(false)
				continue
			}
			board.Dispatch(ctx, ev)
			if err := d.Ack(false); err != nil {
				log.Printf("[feed] ack failed: %v", err)
			}
		}
	}
}

// Close releases the subscription and waits for the delivery loop to finish,
// so no further events mutate a board that is no longer displayed.
func (f *Feed) Close() error {
	if f.ch != nil && !f.ch.IsClosed() {
		if err := f.ch.Close(); err != nil {
			return fmt.Errorf("close feed channel: %w", err)
		}
	}
	if f.conn != nil && !f.conn.IsClosed() {
		if err := f.conn.Close(); err != nil {
			return fmt.Errorf("close feed connection: %w", err)
		}
	}
	if f.started {
		<-f.done
	}
	return nil
}
