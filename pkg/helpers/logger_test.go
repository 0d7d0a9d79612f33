package helpers

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogError(logger, "save account failed", errors.New("connection reset"), logrus.Fields{"stage": "save_account"})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "save account failed", entry.Message)
	assert.Equal(t, "connection reset", entry.Data["error"])
	assert.Equal(t, "save_account", entry.Data["stage"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, "x", errors.New("y"), nil)
		LogInfo(nil, "x", nil)
	})
}

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("app", "development", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("app", "production", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("app", "production", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("app", "production", "loud").GetLevel())

	_, isJSON := NewLogger("app", "production", "").Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestLogWarn(t *testing.T) {
	logger, hook := test.NewNullLogger()
	LogWarn(logger, "signup lock unavailable", errors.New("dial tcp"), nil)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "dial tcp", hook.LastEntry().Data["error"])
}
