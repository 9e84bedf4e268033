package alert

import (
	"context"
	"strings"
	"testing"

	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestEmailMessage(t *testing.T) {
	e := NewEmail(SmtpConfig{
		Server:       "smtp.example.com",
		Port:         587,
		EmailAddress: "pantry@example.com",
	}, []string{"operator@example.com"}, telemetry.NewTestAPI(t))

	raw, err := e.message("login timed out", "the login page did not load").Bytes()
	require.NoError(t, err)

	text := string(raw)
	require.Contains(t, text, "Subject: [pantry] login timed out")
	require.Contains(t, text, "operator@example.com")
	require.Contains(t, text, "pantry@example.com")
	require.True(t, strings.Contains(text, "the login page did not load"))
}

func TestEmailSendFailure(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	e := NewEmail(SmtpConfig{Server: "127.0.0.1", Port: 1}, []string{"operator@example.com"}, tel)

	err := e.Alert(context.Background(), "subject", "body")
	require.Error(t, err)
	require.Equal(t, []string{"alert: alert.send"}, tel.Broken())
}

func TestLog(t *testing.T) {
	tel := telemetry.NewTestAPI(t)
	require.NoError(t, NewLog(tel).Alert(context.Background(), "subject", "body"))
	require.Equal(t, []string{"alert: alert.send"}, tel.Broken())
}
