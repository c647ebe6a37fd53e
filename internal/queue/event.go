// Package queue defines message payloads exchanged over the message broker
// and the background consumer delivering them.
package queue

// EmailQueueName is the durable queue carrying outbound email events.
const EmailQueueName = "email.send"

// EmailRequestedEvent is published whenever the platform needs to send an
// email (OTP codes, approval notices). The consumer delivers it via SMTP or
// logs it when no SMTP server is configured.
type EmailRequestedEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    string `json:"kind"` // otp, approval, rejection, request
}
