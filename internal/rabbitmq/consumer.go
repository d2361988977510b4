package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one delivery. Returning false requeues the message.
type HandlerFunc func(ctx context.Context, routingKey string, body []byte) bool

// Consumer reads from a durable queue bound to a topic exchange.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	wg   sync.WaitGroup
}

// NewConsumer dials the broker and opens a channel with the given prefetch.
func NewConsumer(amqpURL string, prefetch int) (*Consumer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// Consume binds queueName to exchange with bindingKey (wildcards allowed) and
// runs handler for each delivery on its own goroutine until ctx is done.
// Handlers already running when ctx is done are allowed to finish.
func (c *Consumer) Consume(ctx context.Context, exchange, queueName, bindingKey string, handler HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("no handler provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	if err := c.ch.QueueBind(q.Name, bindingKey, exchange, false, nil); err != nil {
		return err
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	handlerCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					log.Printf("[RABBITMQ] delivery channel closed for queue %s", q.Name)
					return
				}
				c.wg.Add(1)
				go func(d amqp.Delivery) {
					defer c.wg.Done()
					if handler(handlerCtx, d.RoutingKey, d.Body) {
						d.Ack(false)
						return
					}
					log.Printf("[RABBITMQ] handler for routing key %s failed; re-queuing", d.RoutingKey)
					d.Nack(false, true)
				}(d)
			}
		}
	}()

	return nil
}

// Close waits for in-flight handlers, then closes the channel and connection.
// Cancel the context passed to Consume first.
func (c *Consumer) Close() {
	c.wg.Wait()
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
