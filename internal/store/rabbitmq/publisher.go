package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// ExchangeEvent records one completed question/answer exchange for the
// offline stats worker.
type ExchangeEvent struct {
	SessionID    string   `json:"session_id"`
	ResponseTime *float64 `json:"response_time,omitempty"`
	TokensUsed   *int     `json:"tokens_used,omitempty"`
	AskedAt      int64    `json:"asked_at"`
}

type queueSpec struct {
	name string
	args amqp.Table
}

// topology is the full queue set for one logical stream: the main queue
// dead-letters rejected messages to the DLQ, the retry queue parks messages
// and dead-letters them back to the main queue.
func topology(queue string) []queueSpec {
	dlq := queue + ".dlq"
	retry := queue + ".retry"
	return []queueSpec{
		{name: dlq, args: nil},
		{name: retry, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		}},
		{name: queue, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		}},
	}
}

// DeclareTopology declares the queue set on ch. Every binary touching the
// broker must declare through here: the broker rejects a redeclare whose
// argument table differs, so publisher and worker have to agree exactly.
func DeclareTopology(ch *amqp.Channel, queue string) error {
	for _, q := range topology(queue) {
		if _, err := ch.QueueDeclare(
			q.name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false,
			q.args,
		); err != nil {
			return err
		}
	}
	return nil
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishExchange is fire-and-forget from the caller's point of view;
// a nil *Publisher drops the event.
func (p *Publisher) PublishExchange(ctx context.Context, ev ExchangeEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
