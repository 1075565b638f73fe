package helpers

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppHookStampsEntries(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.AddHook(appHook{app: "greenloop", env: "test"})

	logger.WithField("user_id", "u1").Info("hello")
	require.Len(t, hook.Entries, 1)
	e := hook.LastEntry()
	assert.Equal(t, "greenloop", e.Data["app"])
	assert.Equal(t, "test", e.Data["env"])
	assert.Equal(t, "u1", e.Data["user_id"])

	logger.WithField("app", "worker").Info("override")
	assert.Equal(t, "worker", hook.LastEntry().Data["app"])
}

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("x", "development").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("x", "production").GetLevel())
}
