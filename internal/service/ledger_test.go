package service

import (
	"testing"
	"time"

	"pto-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filedEntry(t *testing.T, env *testEnv, user *models.User, start, end, filed time.Time, total int) *models.Entry {
	t.Helper()
	entry := &models.Entry{
		UserID:     user.ID,
		Start:      start,
		End:        end,
		TotalHours: models.IntPtr(total),
		Details:    "details",
		AddDate:    filed,
	}
	require.NoError(t, env.store.Entries.Create(entry))
	return entry
}

func TestLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	svc := NewLedgerService(env.store)
	svc.logger = quietLogger()

	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")
	laura := env.user(t, "laura", "laura@example.com", "Laura", "Thomson")

	profile, err := env.store.Profiles.GetByUserID(peter.ID)
	require.NoError(t, err)
	profile.Office = "London:::GB"
	_, err = env.userService().SaveProfile(profile)
	require.NoError(t, err)

	filedEntry(t, env, peter, date(2018, 1, 1), date(2018, 1, 2), time.Date(2017, 12, 1, 10, 0, 0, 0, time.UTC), 16)
	filedEntry(t, env, laura, date(2018, 2, 5), date(2018, 2, 5), time.Date(2017, 12, 20, 10, 0, 0, 0, time.UTC), 8)
	draft := &models.Entry{UserID: laura.ID, Start: date(2018, 3, 1), End: date(2018, 3, 1)}
	require.NoError(t, env.store.Entries.Create(draft))

	tests := []struct {
		name   string
		filter LedgerFilter
		emails []string
	}{
		{"no filter", LedgerFilter{}, []string{"peter@example.com", "laura@example.com"}},
		{"name mixed case", LedgerFilter{Name: "PeteR"}, []string{"peter@example.com"}},
		{"full name", LedgerFilter{Name: "peter bengtsson"}, []string{"peter@example.com"}},
		{"reversed name", LedgerFilter{Name: "Thomson Laura"}, []string{"laura@example.com"}},
		{"email", LedgerFilter{Name: "laura@"}, []string{"laura@example.com"}},
		{"unknown name", LedgerFilter{Name: "zorro"}, []string{}},
		{"filed to", LedgerFilter{DateFiledTo: "01 December 2017"}, []string{"peter@example.com"}},
		{"filed from", LedgerFilter{DateFiledFrom: "2017-12-02"}, []string{"laura@example.com"}},
		{"date from", LedgerFilter{DateFrom: "02 January 2018"}, []string{"peter@example.com", "laura@example.com"}},
		{"date from after peter", LedgerFilter{DateFrom: "03 January 2018"}, []string{"laura@example.com"}},
		{"date to", LedgerFilter{DateTo: "31 January 2018"}, []string{"peter@example.com"}},
		{"junk filed from", LedgerFilter{DateFiledFrom: "junk"}, []string{}},
		{"junk date to", LedgerFilter{Name: "peter", DateTo: "not a date"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.Rows(tt.filter)
			require.NoError(t, err)
			emails := []string{}
			for _, r := range rows {
				emails = append(emails, r.Email)
			}
			assert.Equal(t, tt.emails, emails)
		})
	}

	rows, err := svc.Rows(LedgerFilter{Name: "peter"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{
		"peter@example.com", "Peter", "Bengtsson", "2017-12-01", 16,
		"2018-01-01", "2018-01-02", "London", "GB", "details",
	}, rows[0].Values())
}

func TestLedgerPage(t *testing.T) {
	env := newTestEnv(t)
	svc := NewLedgerService(env.store)
	peter := env.user(t, "peter", "peter@example.com", "Peter", "Bengtsson")

	page, err := svc.Page(LedgerFilter{}, date(2018, 6, 1))
	require.NoError(t, err)
	assert.Nil(t, page.FirstDate)

	filedEntry(t, env, peter, date(2018, 1, 1), date(2018, 1, 5), date(2017, 11, 1), 40)
	page, err = svc.Page(LedgerFilter{Name: "x"}, date(2018, 6, 1))
	require.NoError(t, err)
	require.NotNil(t, page.FirstDate)
	assert.True(t, page.FirstDate.Equal(date(2018, 1, 1)))
	assert.True(t, page.LastDate.Equal(date(2018, 1, 5)))
	assert.Equal(t, "x", page.Filter.Name)
}

func TestMatchesName(t *testing.T) {
	u := &models.User{FirstName: "Peter", LastName: "Bengtsson", Email: "pbengtsson@mozilla.com"}
	assert.True(t, MatchesName(u, "PeteR"))
	assert.True(t, MatchesName(u, "bengtsson pet"))
	assert.True(t, MatchesName(u, "r beng"))
	assert.True(t, MatchesName(u, "mozilla"))
	assert.False(t, MatchesName(u, "laura"))
}
