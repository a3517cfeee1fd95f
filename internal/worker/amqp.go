package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Declare creates the run queue and the updates exchange if they do not
// exist. Both are durable.
func Declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueName, err)
	}
	if err := ch.ExchangeDeclare(
		UpdatesExchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", UpdatesExchange, err)
	}
	return nil
}

// AMQPPublisher publishes on one channel of a RabbitMQ connection.
type AMQPPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

// NewAMQPPublisher opens a channel on conn and declares the broker objects.
func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := Declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) publish(exchange, key string, v any, mode uint8) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// PublishUpdate sends u to UpdatesExchange under u.RoutingKey().
func (p *AMQPPublisher) PublishUpdate(_ context.Context, u Update) error {
	return p.publish(UpdatesExchange, u.RoutingKey(), u, amqp.Transient)
}

// Submit queues a run request.
func (p *AMQPPublisher) Submit(_ context.Context, req Request) error {
	return p.publish("", QueueName, req, amqp.Persistent)
}

// Close closes the channel.
func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

// Consumer feeds queued requests to a Worker.
type Consumer struct {
	URL         string
	Concurrency int
	Worker      *Worker
	Logger      *slog.Logger
}

// Run consumes until ctx is cancelled or the connection drops. Each of
// Concurrency goroutines has its own channel and handles one message at a
// time.
func (c *Consumer) Run(ctx context.Context) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := max(c.Concurrency, 1)

	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	consumers := make([]<-chan amqp.Delivery, n)
	for i := range n {
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("error opening rabbitmq channel: %w", err)
		}
		defer ch.Close()
		if err := Declare(ch); err != nil {
			return err
		}
		if err := ch.Qos(1, 0, false); err != nil {
			return fmt.Errorf("failed to set prefetch: %w", err)
		}
		consumers[i], err = ch.Consume(
			QueueName,
			fmt.Sprintf("resume-genie-%d", i+1),
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("error consuming from %s: %w", QueueName, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, deliveries := range consumers {
		g.Go(func() error {
			logger.Info("consumer started", "consumer", i+1)
			for {
				select {
				case <-gctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return errors.New("delivery channel closed")
					}
					c.process(gctx, logger, d)
				}
			}
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				return fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
			}
			return errors.New("rabbitmq connection closed")
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// process handles one delivery. Bad requests are rejected without requeue;
// runs interrupted by shutdown are requeued; everything else is acked once
// handled, including failed runs.
func (c *Consumer) process(ctx context.Context, logger *slog.Logger, d amqp.Delivery) {
	err := c.Worker.Handle(ctx, d.Body)
	switch {
	case err != nil && ctx.Err() != nil:
		if nerr := d.Nack(false, true); nerr != nil {
			logger.Error("failed to requeue message", "error", nerr)
		}
		return
	case errors.Is(err, ErrBadRequest):
		logger.Warn("rejecting message", "delivery_tag", d.DeliveryTag, "error", err)
		if nerr := d.Nack(false, false); nerr != nil {
			logger.Error("failed to nack message", "error", nerr)
		}
		return
	case err != nil:
		logger.Warn("run failed", "delivery_tag", d.DeliveryTag, "error", err)
	}
	if aerr := d.Ack(false); aerr != nil {
		logger.Error("failed to ack message", "error", aerr)
	}
}
