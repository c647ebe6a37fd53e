// Package mailer publishes outbound email as durable queue events.
// Delivery is fire-and-forget from the caller's perspective: a broker outage
// is logged and never rolls back state already committed to the database.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"milkeyway/internal/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer abstracts outbound email so services and tests stay transport-agnostic.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string, expiresAt time.Time) error
	SendApprovalNotice(ctx context.Context, to, name string, approved bool, reason string) error
	SendRequestNotice(ctx context.Context, to, farmName, productInterest string) error
}

// QueueMailer publishes EmailRequestedEvents to RabbitMQ.
type QueueMailer struct {
	url string
}

func NewQueueMailer() *QueueMailer {
	return &QueueMailer{url: queue.BrokerURL()}
}

func (m *QueueMailer) SendOTP(ctx context.Context, to, name, code string, expiresAt time.Time) error {
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your Milkeyway verification code is <b>%s</b>. It expires at %s.</p>",
		name, code, expiresAt.Format("15:04 MST"))
	return m.publish(ctx, queue.EmailRequestedEvent{
		To:      to,
		Subject: "Your Milkeyway verification code",
		HTML:    html,
		Kind:    "otp",
	})
}

func (m *QueueMailer) SendApprovalNotice(ctx context.Context, to, name string, approved bool, reason string) error {
	subject := "Your farm profile has been approved"
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your farm profile is now live and discoverable by consumers.</p>", name)
	if !approved {
		subject = "Your farm profile was rejected"
		html = fmt.Sprintf("<p>Hi %s,</p><p>Your farm profile was rejected.</p>", name)
		if reason != "" {
			html += fmt.Sprintf("<p>Reason: %s</p>", reason)
		}
	}
	return m.publish(ctx, queue.EmailRequestedEvent{To: to, Subject: subject, HTML: html, Kind: "approval"})
}

func (m *QueueMailer) SendRequestNotice(ctx context.Context, to, farmName, productInterest string) error {
	html := fmt.Sprintf(
		"<p>A consumer wants to connect with %s about %s. Log in to respond.</p>",
		farmName, productInterest)
	return m.publish(ctx, queue.EmailRequestedEvent{
		To:      to,
		Subject: "New connection request",
		HTML:    html,
		Kind:    "request",
	})
}

func (m *QueueMailer) publish(ctx context.Context, event queue.EmailRequestedEvent) error {
	conn, err := amqp.Dial(m.url)
	if err != nil {
		log.Printf("mailer: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("mailer: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue.EmailQueueName, true, false, false, false, nil); err != nil {
		log.Printf("mailer: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("mailer: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue.EmailQueueName, false, false, pub); err != nil {
		log.Printf("mailer: publish failed: %v", err)
		return err
	}

	return nil
}
