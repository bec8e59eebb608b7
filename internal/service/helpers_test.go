package service

import (
	"io"
	"testing"
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/internal/repository"
	"pto-tracker/pkg/mailer"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cfg    *config.Config
	store  *repository.Store
	dir    *directory.Static
	outbox *mailer.Outbox
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseDriver:      "sqlite",
		DatabaseURL:         ":memory:",
		JWTSecret:           "test-secret",
		JWTTTL:              time.Hour,
		WorkDay:             8,
		DefaultDateFormat:   "Monday, January 02, 2006",
		EmailSubject:        "PTO notification from {{.FirstName}} {{.LastName}}",
		EmailSubjectEdit:    "PTO update from {{.FirstName}} {{.LastName}}",
		EmailSignature:      "The PTO cruncher",
		FallbackToAddress:   "fallback@example.com",
		EmailBlacklist:      []string{"all@mozilla.com", "all-mv@mozilla.com"},
		CalendarMinionDepth: 2,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.OpenDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	store, err := repository.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &testEnv{
		cfg:    testConfig(),
		store:  store,
		dir:    directory.NewStatic(),
		outbox: &mailer.Outbox{},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (e *testEnv) entryService() *EntryService {
	s := NewEntryService(e.store, e.dir, e.cfg)
	s.logger = quietLogger()
	return s
}

func (e *testEnv) userService() *UserService {
	s := NewUserService(e.store)
	s.logger = quietLogger()
	return s
}

func (e *testEnv) notificationService() *NotificationService {
	s := NewNotificationService(e.store, e.dir, e.outbox, nil, e.cfg)
	s.logger = quietLogger()
	return s
}

func (e *testEnv) user(t *testing.T, username, email, first, last string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, FirstName: first, LastName: last}
	require.NoError(t, e.store.Users.Create(u))
	_, err := e.userService().EnsureProfile(u)
	require.NoError(t, err)
	return u
}

// finalEntry stores a finalized entry with one Hours row per given day.
func (e *testEnv) finalEntry(t *testing.T, user *models.User, start, end time.Time, hours map[time.Time]int) *models.Entry {
	t.Helper()
	total := 0
	for _, h := range hours {
		total += h
	}
	entry := &models.Entry{UserID: user.ID, Start: start, End: end, TotalHours: models.IntPtr(total)}
	require.NoError(t, e.store.Entries.Create(entry))
	for d, h := range hours {
		require.NoError(t, e.store.Hours.Create(&models.Hours{EntryID: entry.ID, Date: d, Hours: h}))
	}
	return entry
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
