package mailer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message. A nil error means the transport accepted it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Publisher is the subset of a queue client used by QueueSender.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSender hands messages to the email worker through a queue.
type QueueSender struct {
	Pub Publisher
}

func NewQueueSender(pub Publisher) *QueueSender {
	return &QueueSender{Pub: pub}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if s.Pub == nil {
		return errors.New("mail queue not configured")
	}
	return s.Pub.PublishJSON(ctx, JobFromMessage(msg))
}

// LogSender only logs messages; used when MAIL_SEND_ENABLED=false.
type LogSender struct {
	Logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
		}).Info("mail sending disabled; message not delivered")
		s.Logger.WithField("to", msg.To).Debug(msg.Text)
	}
	return nil
}
