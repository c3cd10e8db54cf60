package events

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// RabbitMQPublisher is an implementation of Publisher using RabbitMQ
type RabbitMQPublisher struct {
	conn    *amqp.Connection // Connection to RabbitMQ
	channel *amqp.Channel    // Channel to communicate with RabbitMQ
	queue   amqp.Queue       // Queue to which events will be published
}

// NewRabbitMQPublisher dials url and declares a durable queue named queueName
func NewRabbitMQPublisher(url, queueName string) (*RabbitMQPublisher, error) {
	// Establish connection to RabbitMQ
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	// Open a channel for communication
	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Clean up connection on error
		return nil, err
	}

	// Declare the queue where events will be sent
	queue, err := ch.QueueDeclare(
		queueName, // Queue name
		true,      // Durable (survives RabbitMQ restarts)
		false,     // Auto-delete when unused
		false,     // Not exclusive to a single connection
		false,     // No-wait for confirmation
		nil,       // Additional queue arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{conn: conn, channel: ch, queue: queue}, nil
}

// Publish sends an event to the RabbitMQ queue
func (p *RabbitMQPublisher) Publish(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.channel.Publish(
		"",           // Default exchange (direct routing to a queue)
		p.queue.Name, // Queue name as the routing key
		false,        // Mandatory flag (not used here)
		false,        // Immediate flag (not used here)
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         event.Type,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"type":       event.Type,
		"account_id": event.AccountID,
	}).Debug("Event published")
	return nil
}

// Close releases RabbitMQ resources
func (p *RabbitMQPublisher) Close() {
	p.channel.Close() // Close the channel
	p.conn.Close()    // Close the connection
}
