package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

const alertTimeLayout = "02-Jan-2006 03:04:05 PM"

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// EmailSender delivers alerts over SMTP. Port 465 uses implicit TLS, any
// other port upgrades with STARTTLS when the server offers it.
type EmailSender struct {
	config SMTPConfig
}

func NewEmailSender(config SMTPConfig) *EmailSender {
	return &EmailSender{config: config}
}

func (e *EmailSender) Send(ctx context.Context, n domain.TransferNotification) error {
	to := strings.TrimSpace(n.RecipientEmail)
	if to == "" {
		return errors.New("recipient email is empty")
	}

	msg, err := buildMessage(e.config, n)
	if err != nil {
		return err
	}

	client, err := e.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if e.config.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(e.config.FromEmail); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

func (e *EmailSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(e.config.Host, e.config.Port)
	tlsConfig := &tls.Config{ServerName: e.config.Host, MinVersion: tls.VersionTLS12}

	var (
		conn net.Conn
		err  error
	)
	if e.config.Port == "465" {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, e.config.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if e.config.Port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	return client, nil
}

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
<h2>{{.Heading}}</h2>
<p>Dear {{.RecipientName}},</p>
<p>{{.Summary}}</p>
<table cellpadding="6">
<tr><td><b>Amount</b></td><td>{{.Amount}}</td></tr>
<tr><td><b>{{.CounterpartyLabel}}</b></td><td>{{.CounterpartyName}}</td></tr>
<tr><td><b>Account Number</b></td><td>{{.CounterpartyAccountNumber}}</td></tr>
<tr><td><b>Transaction ID</b></td><td>{{.TransactionID}}</td></tr>
<tr><td><b>Date &amp; Time</b></td><td>{{.Timestamp}}</td></tr>
<tr><td><b>Mode</b></td><td>{{.Mode}}</td></tr>
{{if .Description}}<tr><td><b>Description</b></td><td>{{.Description}}</td></tr>{{end}}
</table>
<p>This is an automated message. Please do not reply.</p>
</body>
</html>
`))

type alertView struct {
	Heading                   string
	Summary                   string
	RecipientName             string
	Amount                    string
	CounterpartyLabel         string
	CounterpartyName          string
	CounterpartyAccountNumber string
	TransactionID             string
	Timestamp                 string
	Mode                      string
	Description               string
}

func subjectFor(direction domain.EntryType) string {
	if direction == domain.EntryCredited {
		return "Transaction Successful - Money Credited"
	}
	return "Transaction Successful - Money Debited"
}

func buildMessage(config SMTPConfig, n domain.TransferNotification) ([]byte, error) {
	view := alertView{
		RecipientName:             n.RecipientName,
		Amount:                    n.Amount.StringFixed(2),
		CounterpartyName:          n.CounterpartyName,
		CounterpartyAccountNumber: n.CounterpartyAccountNumber,
		TransactionID:             n.TransactionID,
		Timestamp:                 n.Timestamp.In(time.Local).Format(alertTimeLayout),
		Mode:                      string(n.Mode),
		Description:               n.Description,
	}
	if n.Direction == domain.EntryCredited {
		view.Heading = "Money Credited"
		view.Summary = "Your account has been credited."
		view.CounterpartyLabel = "From"
	} else {
		view.Heading = "Money Debited"
		view.Summary = "Your account has been debited."
		view.CounterpartyLabel = "To"
	}

	var body bytes.Buffer
	if err := alertTemplate.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("render alert: %w", err)
	}

	from := config.FromEmail
	if config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", config.FromName), config.FromEmail)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.TrimSpace(n.RecipientEmail))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subjectFor(n.Direction)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}
