package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPSender(t *testing.T) {
	t.Parallel()

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "user@example.com", Password: "x", FromName: "Contacts Systems"})

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", s.from, "from falls back to the username")
}

func TestNewSMTPSender_EmptyHost(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPSender(SMTPConfig{Port: 587})

	assert.Error(t, err)
}

func TestSMTPSender_Build(t *testing.T) {
	t.Parallel()

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com", FromName: "Contacts Systems"})
	require.NoError(t, err)

	m, err := s.build(Message{To: "bond@mi6.uk", Subject: "Confirm your email", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	rcpts, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"bond@mi6.uk"}, rcpts)

	_, err = s.build(Message{To: "not an address"})
	assert.Error(t, err)
}
