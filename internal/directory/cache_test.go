package directory

import (
	"testing"
	"time"

	"pto-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FetchUserDetails(email string) (*Record, error) {
	args := m.Called(email)
	if r := args.Get(0); r != nil {
		return r.(*Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) SearchUsers(query string, limit int, autocomplete bool) ([]Record, error) {
	args := m.Called(query, limit, autocomplete)
	return args.Get(0).([]Record), args.Error(1)
}

func (m *mockDirectory) Authenticate(email, password string) (*Record, error) {
	args := m.Called(email, password)
	return args.Get(0).(*Record), args.Error(1)
}

func TestCached_RemembersHitsAndMisses(t *testing.T) {
	dir := new(mockDirectory)
	peter := &Record{GivenName: "Peter", Surname: "Bengtsson", Mail: "peter@example.com"}
	dir.On("FetchUserDetails", "peter@example.com").Return(peter, nil).Once()
	dir.On("FetchUserDetails", "ghost@example.com").Return(nil, nil).Once()

	cached := NewCached(dir, NewLRUCache(16, time.Hour, time.Minute))

	for i := 0; i < 3; i++ {
		got, err := cached.FetchUserDetails("peter@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Peter Bengtsson", got.Name())

		missing, err := cached.FetchUserDetails("ghost@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	}

	dir.AssertExpectations(t)
}

func TestCached_KeyIsCaseInsensitive(t *testing.T) {
	dir := new(mockDirectory)
	dir.On("FetchUserDetails", "Peter@Example.com").Return(&Record{Mail: "peter@example.com"}, nil).Once()

	cached := NewCached(dir, NewLRUCache(16, time.Hour, time.Minute))
	_, err := cached.FetchUserDetails("Peter@Example.com")
	require.NoError(t, err)
	got, err := cached.FetchUserDetails("peter@example.com")
	require.NoError(t, err)
	assert.Equal(t, "peter@example.com", got.Mail)

	dir.AssertExpectations(t)
}

func TestLRUCache_MissExpires(t *testing.T) {
	cache := NewLRUCache(16, time.Hour, 10*time.Millisecond)
	cache.Set("k", nil)

	_, ok := cache.Get("k")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestLRUCache_HitReplacesMiss(t *testing.T) {
	cache := NewLRUCache(16, time.Hour, time.Hour)
	cache.Set("k", nil)
	cache.Set("k", &Record{Mail: "a@b.com"})

	got, ok := cache.Get("k")
	require.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, "a@b.com", got.Mail)
}

func TestRecord_String(t *testing.T) {
	assert.Equal(t, "Peter Bengtsson <peter@example.com>",
		(&Record{GivenName: "Peter", Surname: "Bengtsson", Mail: "peter@example.com"}).String())
	assert.Equal(t, "pbengtsson <p@example.com>", (&Record{CN: "pbengtsson", Mail: "p@example.com"}).String())
	assert.Equal(t, "p@example.com", (&Record{Mail: "p@example.com"}).String())
}

func TestManagerEmail(t *testing.T) {
	assert.Equal(t, "boss@mozilla.com", managerEmail("mail=boss@mozilla.com,o=com,dc=mozilla"))
	assert.Equal(t, "boss@mozilla.com", managerEmail("boss@mozilla.com"))
	assert.Equal(t, "", managerEmail(""))
}

func ldapTestConfig() config.LDAPConfig {
	return config.LDAPConfig{URL: "ldap://localhost", BaseDN: "dc=mozilla", UserDNTemplate: "mail=%s,o=com,dc=mozilla"}
}

func TestSearchFilter(t *testing.T) {
	d := NewLDAPDirectory(ldapTestConfig())

	assert.Equal(t, "(mail=peter@example.com)", d.searchFilter("peter@example.com", false))
	assert.Equal(t, "(uid=peterbe)", d.searchFilter(":peterbe", false))
	assert.Equal(t, "(cn=*Peter*)", d.searchFilter("Peter", false))
	assert.Equal(t, "(cn=*\\2a*)", d.searchFilter("*", false))
	assert.Equal(t, "(|(givenName=Peter b*)(sn=Peter b*)(mail=Peter b*)(cn=Peter b*))", d.searchFilter("Peter b", true))
	assert.Equal(t, "(uid=pet*)", d.searchFilter(":pet", true))
}

func TestStatic_Authenticate(t *testing.T) {
	s := NewStatic(Record{Mail: "peter@example.com"})
	s.Passwords["peter@example.com"] = "secret"

	_, err := s.Authenticate("Peter@example.com", "secret")
	assert.NoError(t, err)
	_, err = s.Authenticate("peter@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
