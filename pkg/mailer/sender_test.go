package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []any
	err       error
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

func TestQueueSender_Send(t *testing.T) {
	pub := &fakePublisher{}
	s := NewQueueSender(pub)

	msg := Message{To: "jane@example.com", Subject: "Verify", Text: "t", HTML: "<p>h</p>"}
	require.NoError(t, s.Send(context.Background(), msg))

	require.Len(t, pub.published, 1)
	job, ok := pub.published[0].(EmailJob)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", job.To)
	assert.Equal(t, "Verify", job.Subject)
	assert.Equal(t, "<p>h</p>", job.HTML)
	assert.Empty(t, job.Template)
}

func TestQueueSender_PublishError(t *testing.T) {
	s := NewQueueSender(&fakePublisher{err: errors.New("channel closed")})
	err := s.Send(context.Background(), Message{To: "jane@example.com"})
	assert.EqualError(t, err, "channel closed")
}

func TestQueueSender_NoPublisher(t *testing.T) {
	s := &QueueSender{}
	assert.Error(t, s.Send(context.Background(), Message{To: "jane@example.com"}))
}

func TestLogSender_Send(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewLogSender(logger)

	require.NoError(t, s.Send(context.Background(), Message{To: "jane@example.com", Subject: "Verify"}))
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, "jane@example.com", hook.Entries[0].Data["to"])
}

func TestMailgun_NotConfigured(t *testing.T) {
	m := NewMailgun("", "", "")
	assert.False(t, m.Configured())
	assert.Error(t, m.Send(context.Background(), Message{To: "jane@example.com"}))
}
