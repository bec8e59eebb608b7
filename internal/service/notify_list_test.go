package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messyNotify = "mail@email.com, foo@bar.com ;\n  Peter B <ppp@bbb.com>,\nnot valid@ test.com; Axel Test <axe l@e..com>"

func TestParseNotifyList(t *testing.T) {
	emails, err := ParseNotifyList(messyNotify, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"mail@email.com", "foo@bar.com", "ppp@bbb.com"}, emails)
	assert.Equal(t, "mail@email.com; foo@bar.com; ppp@bbb.com", JoinNotifyList(emails))
}

func TestParseNotifyList_Blacklisted(t *testing.T) {
	_, err := ParseNotifyList(messyNotify+"; All@Mozilla.com", []string{"all@mozilla.com"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Can't send email to All@Mozilla.com", verr.FieldErrors["notify"])
}

func TestParseNotifyList_InvalidBlacklistedIsDropped(t *testing.T) {
	emails, err := ParseNotifyList("all@ mozilla.com, a@b.com", []string{"all@mozilla.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, emails)
}

func TestParseNotifyList_Dedupes(t *testing.T) {
	emails, err := ParseNotifyList("a@b.com; Someone <a@b.com>, c@d.com, a@b.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, emails)
}

func TestParseNotifyList_Empty(t *testing.T) {
	emails, err := ParseNotifyList("  ;, ", nil)
	require.NoError(t, err)
	assert.Empty(t, emails)
	assert.Equal(t, "", JoinNotifyList(emails))
}

func TestSplitNotifyList(t *testing.T) {
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, SplitNotifyList("a@b.com; c@d.com;"))
	assert.Nil(t, SplitNotifyList(""))
}
