package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_ReleaseErrorIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := NewRedisLocker(nil, 0, logger)
	id := uuid.New()

	l.release(func(context.Context) error { return errors.New("lock not held") }, id)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "lock not held", entry.Message)
	assert.Equal(t, moduleName, entry.Data["module"])
	assert.Equal(t, id.String(), entry.Data["data"])
}

func TestRedisLocker_ReleaseSuccessIsQuiet(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := NewRedisLocker(nil, 0, logger)

	l.release(func(context.Context) error { return nil }, uuid.New())

	assert.Empty(t, hook.AllEntries())
	assert.Equal(t, time.Minute, l.ttl)
}

func TestLockKey(t *testing.T) {
	id := uuid.MustParse("7f1c2d3e-0000-4000-8000-000000000001")
	assert.Equal(t, "posting:7f1c2d3e-0000-4000-8000-000000000001", lockKey(id))
}
