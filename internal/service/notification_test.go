package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pto-tracker/internal/directory"
	"pto-tracker/internal/models"
	"pto-tracker/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(text string) error {
	return m.Called(text).Error(0)
}

type failingMailer struct{}

func (failingMailer) Send(*mailer.Message) error { return errors.New("smtp down") }

// finalize runs the two step workflow and returns the finalized entry.
func finalize(t *testing.T, env *testEnv, user *models.User, start, end time.Time, values map[string]string) *FinalizeResult {
	t.Helper()
	svc := env.entryService()
	entry, err := svc.CreateDraftEntry(user, DraftInput{Start: start, End: end})
	require.NoError(t, err)
	result, err := svc.FinalizeHours(user, entry.ID, values)
	require.NoError(t, err)
	return result
}

func TestNotification_SubjectNewAndEdit(t *testing.T) {
	env := newTestEnv(t)
	svc := env.notificationService()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	first := finalize(t, env, peter, date(2018, 1, 1), date(2018, 1, 1), map[string]string{"d-20180101": "8"})
	n, err := svc.Send(first.Entry, nil, first.IsEdit)
	require.NoError(t, err)
	assert.Equal(t, "PTO notification from Peter Bengtsson", n.Subject)

	again, err := env.entryService().FinalizeHours(peter, first.Entry.ID, map[string]string{"d-20180101": "4"})
	require.NoError(t, err)
	n2, err := svc.Send(again.Entry, nil, again.IsEdit)
	require.NoError(t, err)
	assert.Equal(t, "PTO update from Peter Bengtsson", n2.Subject)
	assert.NotEqual(t, n.Subject, n2.Subject)
}

func TestNotification_Summary(t *testing.T) {
	env := newTestEnv(t)
	svc := env.notificationService()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")
	anon := env.user(t, "peter2", "peter2@example.com", "", "")

	tests := []struct {
		name     string
		user     *models.User
		start    time.Time
		end      time.Time
		values   map[string]string
		expected string
	}{
		{
			name:  "several days",
			user:  peter,
			start: date(2018, 1, 1), end: date(2018, 1, 3),
			values:   map[string]string{"d-20180101": "8", "d-20180102": "8", "d-20180103": "8"},
			expected: "Peter Bengtsson on PTO (2 days)",
		},
		{
			name:  "monday to tuesday",
			user:  peter,
			start: date(2018, 2, 5), end: date(2018, 2, 6),
			values:   map[string]string{"d-20180205": "8", "d-20180206": "8"},
			expected: "Peter Bengtsson on PTO (1 day)",
		},
		{
			name:  "single full day",
			user:  peter,
			start: date(2018, 2, 12), end: date(2018, 2, 12),
			values:   map[string]string{"d-20180212": "8"},
			expected: "Peter Bengtsson on PTO (0 days)",
		},
		{
			name:  "birthday",
			user:  peter,
			start: date(2018, 3, 5), end: date(2018, 3, 5),
			values:   map[string]string{"d-20180305": "-1"},
			expected: "Peter Bengtsson on PTO (birthday)",
		},
		{
			name:  "part of a day without a name",
			user:  anon,
			start: date(2018, 4, 2), end: date(2018, 4, 2),
			values:   map[string]string{"d-20180402": "4"},
			expected: "peter2 on PTO (4 hours)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := finalize(t, env, tt.user, tt.start, tt.end, tt.values)
			summary, err := svc.Summary(result.Entry, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, summary)
		})
	}
}

func TestNotification_Recipients(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.HRManagers = []string{"hr@example.com"}
	env.dir.Records["boss@example.com"] = directory.Record{Mail: "boss@example.com", GivenName: "Big", Surname: "Boss"}
	svc := env.notificationService()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	profile, err := env.store.Profiles.GetByUserID(peter.ID)
	require.NoError(t, err)
	profile.Manager = "boss@example.com"
	require.NoError(t, env.store.Profiles.Save(profile))

	recipients, err := svc.Recipients(peter, []string{"axel@example.com", "HR@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hr@example.com", "boss@example.com", "axel@example.com"}, recipients)
}

func TestNotification_RecipientsFallback(t *testing.T) {
	env := newTestEnv(t)
	svc := env.notificationService()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	recipients, err := svc.Recipients(peter, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback@example.com"}, recipients)
}

func TestNotification_SendComposesMessage(t *testing.T) {
	env := newTestEnv(t)
	notifier := new(mockNotifier)
	notifier.On("Notify", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Peter Bengtsson on PTO (1 day)")
	})).Return(nil).Once()

	svc := NewNotificationService(env.store, env.dir, env.outbox, notifier, env.cfg)
	svc.logger = quietLogger()
	svc.now = func() time.Time { return date(2017, 12, 20) }

	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")
	entry, err := env.entryService().CreateDraftEntry(peter, DraftInput{
		Start: date(2018, 1, 1), End: date(2018, 1, 2), Details: "Skiing",
	})
	require.NoError(t, err)
	result, err := env.entryService().FinalizeHours(peter, entry.ID, map[string]string{"d-20180101": "8", "d-20180102": "8"})
	require.NoError(t, err)

	n, err := svc.Send(result.Entry, []string{"axel@example.com"}, false)
	require.NoError(t, err)
	assert.True(t, n.Sent)
	assert.Equal(t, []string{"axel@example.com"}, n.Recipients)

	msg := env.outbox.Last()
	require.NotNil(t, msg)
	assert.Equal(t, "peter@example.com", msg.From)
	assert.Equal(t, []string{"peter@example.com"}, msg.Cc)
	assert.Contains(t, msg.Body, "Monday, January 01, 2018")
	assert.Contains(t, msg.Body, "Skiing")
	assert.True(t, strings.HasSuffix(msg.Body, "--\nThe PTO cruncher"))

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "event.ics", att.Filename)
	assert.Equal(t, "text/calendar", att.ContentType)
	ics := string(att.Data)
	assert.Contains(t, ics, "METHOD:PUBLISH")
	assert.Contains(t, ics, "SUMMARY:Peter Bengtsson on PTO (1 day)")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20180101")
	assert.Contains(t, ics, "DTEND;VALUE=DATE:20180102")

	notifier.AssertExpectations(t)
}

func TestNotification_SendFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := NewNotificationService(env.store, env.dir, failingMailer{}, nil, env.cfg)
	svc.logger = quietLogger()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	result := finalize(t, env, peter, date(2018, 1, 1), date(2018, 1, 1), map[string]string{"d-20180101": "8"})
	n, err := svc.Send(result.Entry, nil, false)
	require.Error(t, err)
	require.NotNil(t, n)
	assert.False(t, n.Sent)
	assert.Equal(t, []string{"fallback@example.com"}, n.Recipients)
}

func TestNotification_RejectsDraft(t *testing.T) {
	env := newTestEnv(t)
	svc := env.notificationService()
	_, err := svc.Send(&models.Entry{ID: 1}, nil, false)
	assert.Error(t, err)
}

func TestNotification_Managers(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.HRManagers = []string{"hr@example.com", "ghost@example.com"}
	env.dir.Records["hr@example.com"] = directory.Record{Mail: "hr@example.com", GivenName: "Human", Surname: "Resources"}
	env.dir.Records["boss@example.com"] = directory.Record{Mail: "boss@example.com", GivenName: "Big", Surname: "Boss"}
	svc := env.notificationService()
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	ctx, err := svc.Managers(peter)
	require.NoError(t, err)
	assert.Nil(t, ctx.Manager)
	require.Len(t, ctx.HRManagers, 2)
	assert.Nil(t, ctx.HRManagers[1])
	require.Len(t, ctx.AllManagers, 1)

	profile, err := env.store.Profiles.GetByUserID(peter.ID)
	require.NoError(t, err)
	profile.Manager = "boss@example.com"
	require.NoError(t, env.store.Profiles.Save(profile))

	ctx, err = svc.Managers(peter)
	require.NoError(t, err)
	require.NotNil(t, ctx.Manager)
	assert.Equal(t, "Big Boss <boss@example.com>", ctx.Manager.String())
	assert.Len(t, ctx.AllManagers, 2)
}
