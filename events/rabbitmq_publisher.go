package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// TransactionRecorded is the message body published for every committed ledger record.
type TransactionRecorded struct {
	EventID              string    `json:"eventId"`
	TransactionID        int       `json:"transactionId"`
	Type                 string    `json:"type"`
	SenderID             *int      `json:"senderId"`
	ReceiverID           int       `json:"receiverId"`
	Amount               string    `json:"amount"`
	RevertsTransactionID *int      `json:"revertsTransactionId,omitempty"`
	OccurredAt           time.Time `json:"occurredAt"`
}

// NewTransactionRecorded builds the event for t. Amounts are rendered with
// exactly two fraction digits so consumers never parse a float.
func NewTransactionRecorded(t *model.Transaction) TransactionRecorded {
	return TransactionRecorded{
		EventID:              uuid.NewString(),
		TransactionID:        t.ID,
		Type:                 string(t.Type),
		SenderID:             t.SenderID,
		ReceiverID:           t.ReceiverID,
		Amount:               t.Amount.StringFixed(2),
		RevertsTransactionID: t.RevertsTransactionID,
		OccurredAt:           t.CreatedAt.UTC(),
	}
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes ledger events to a durable topic exchange.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher dials url and declares the exchange.
func NewRabbitMQPublisher(url, exchange, routingKey string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"exchange":    exchange,
		"routing_key": routingKey,
	}).Info("RabbitMQ publisher ready")

	return &RabbitMQPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// PublishTransactionRecorded sends a persistent JSON message describing t.
func (p *RabbitMQPublisher) PublishTransactionRecorded(ctx context.Context, t *model.Transaction) error {
	event := NewTransactionRecorded(t)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Type:         "ledger.transaction.recorded",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
