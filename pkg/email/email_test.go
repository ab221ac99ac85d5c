package email

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderDisabled(t *testing.T) {
	var nilSender *Sender
	assert.False(t, nilSender.Enabled())
	assert.False(t, NewSender("", "587", "", "").Enabled())
	assert.Error(t, NewSender("", "587", "", "").SendEmail("a@b.c", "s", "b"))
}

func TestSendEmail(t *testing.T) {
	s := NewSender("smtp.example.com", "587", "noreply@example.com", "pw")

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.Equal(t, "noreply@example.com", from)
		return nil
	}

	require.NoError(t, s.SendEmail("bob@example.com", "New friend request", "alice wants to be your friend"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: New friend request\r\n")
	assert.Contains(t, string(gotMsg), "alice wants to be your friend")
}
