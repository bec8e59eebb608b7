package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestServicesLogThroughStandardLogger(t *testing.T) {
	env := newTestEnv(t)
	users := NewUserService(env.store)
	std := logrus.StandardLogger()

	assert.Same(t, std, users.logger)
	assert.Same(t, std, NewEntryService(env.store, env.dir, env.cfg).logger)
	assert.Same(t, std, NewNotificationService(env.store, env.dir, env.outbox, nil, env.cfg).logger)
	assert.Same(t, std, NewLedgerService(env.store).logger)
	assert.Same(t, std, NewCalendarService(env.store, users, env.cfg).logger)
	assert.Same(t, std, NewLegacyMigrationService(env.store, env.cfg).logger)
	assert.Same(t, std, NewAuthService(env.store, users, nil, env.cfg).logger)
}
