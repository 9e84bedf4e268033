// Package alert notifies the operator of failures that need a human.
package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/jordan-wright/email"
)

const (
	report_alert_send = "alert.send"
)

type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password" env:"PANTRY_SMTP_PASSWORD"`
}

// Email sends alerts over smtp.
type Email struct {
	smtp SmtpConfig
	to   []string
	tel  telemetry.API
}

func NewEmail(smtp SmtpConfig, to []string, tel telemetry.API) Email {
	return Email{
		smtp: smtp,
		to:   to,
		tel:  telemetry.NewScopedAPI("alert", tel),
	}
}

func (e Email) message(subject, body string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Pantry Inventory <%s>", e.smtp.EmailAddress)
	mail.To = e.to
	mail.Subject = "[pantry] " + subject
	mail.Text = []byte(body)
	return mail
}

func (e Email) Alert(ctx context.Context, subject, body string) error {
	mail := e.message(subject, body)
	addr := fmt.Sprintf("%s:%d", e.smtp.Server, e.smtp.Port)

	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.smtp.EmailAddress, e.smtp.Password, e.smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		e.tel.ReportBroken(report_alert_send, err, subject)
		return err
	}
	return nil
}

// Log only reports alerts through telemetry, for when no mail server is
// configured.
type Log struct {
	tel telemetry.API
}

func NewLog(tel telemetry.API) Log {
	return Log{tel: telemetry.NewScopedAPI("alert", tel)}
}

func (l Log) Alert(ctx context.Context, subject, body string) error {
	l.tel.ReportBroken(report_alert_send, subject, body)
	return nil
}
