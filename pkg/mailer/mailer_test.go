package mailer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_WritesHeadersAndAttachment(t *testing.T) {
	m := build(&Message{
		Subject: "PTO notification from Peter Bengtsson",
		Body:    "hello",
		From:    "peter@example.com",
		To:      []string{"boss@example.com", "hr@example.com"},
		Cc:      []string{"peter@example.com"},
		Attachments: []Attachment{
			{Filename: "event.ics", ContentType: "text/calendar", Data: []byte("BEGIN:VCALENDAR")},
		},
	})

	assert.Equal(t, []string{"boss@example.com", "hr@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"peter@example.com"}, m.GetHeader("Cc"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: PTO notification from Peter Bengtsson")
	assert.Contains(t, raw, "text/calendar")
	assert.Contains(t, raw, `filename="event.ics"`)
}

func TestBuild_NoCcHeaderWhenEmpty(t *testing.T) {
	m := build(&Message{Subject: "s", From: "a@b.com", To: []string{"c@d.com"}})
	assert.Empty(t, m.GetHeader("Cc"))
}

func TestOutbox(t *testing.T) {
	var o Outbox
	assert.Nil(t, o.Last())

	require.NoError(t, o.Send(&Message{Subject: "one"}))
	require.NoError(t, o.Send(&Message{Subject: "two"}))
	assert.Len(t, o.Messages, 2)
	assert.True(t, strings.HasSuffix(o.Last().Subject, "two"))
}
