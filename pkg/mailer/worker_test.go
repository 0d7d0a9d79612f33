package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	got []Message
	err error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, msg)
	return nil
}

func TestWorker_Handle(t *testing.T) {
	raw, err := json.Marshal(JobFromMessage(Message{To: "ada@example.com", Subject: "Hi", Text: "body"}))
	require.NoError(t, err)
	tpl, err := json.Marshal(EmailJob{
		To:       "ada@example.com",
		Template: "temporary_password",
		Data:     map[string]any{"Name": "Ada", "TemporaryPassword": "s3cretPass"},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    []byte
		sendErr error
		wantErr bool
		check   func(t *testing.T, got []Message)
	}{
		{
			name: "pre-rendered",
			body: raw,
			check: func(t *testing.T, got []Message) {
				require.Len(t, got, 1)
				assert.Equal(t, "Hi", got[0].Subject)
			},
		},
		{
			name: "template",
			body: tpl,
			check: func(t *testing.T, got []Message) {
				require.Len(t, got, 1)
				assert.Contains(t, got[0].Text, "s3cretPass")
			},
		},
		{name: "not json", body: []byte("{"), wantErr: true},
		{name: "unknown template", body: []byte(`{"to":"a@b.co","template":"nope"}`), wantErr: true},
		{name: "transport down", body: raw, sendErr: errors.New("mailgun 503"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSender{err: tt.sendErr}
			err := NewWorker(s, nil).Handle(context.Background(), tt.body)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, s.got)
				return
			}
			require.NoError(t, err)
			tt.check(t, s.got)
		})
	}
}
