// Package contact delivers contact form submissions.
//
// Every submission is written to the outbox before the single delivery
// attempt, so a failed webhook or mail relay never loses a message. The
// Retrier redelivers failed submissions in the background.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotConfigured means no delivery transport is set up.
	ErrNotConfigured = errors.New("contact delivery not configured")
	// ErrDelivery wraps every transport failure.
	ErrDelivery = errors.New("contact delivery failed")
	// ErrInFlight means another attempt currently holds the submission.
	ErrInFlight = errors.New("contact delivery already in progress")
)

// Payload is what a Notifier sends.
type Payload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Notifier hands a payload to an external system.
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
	Name() string
}

// Webhook POSTs the payload as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook returns a Webhook that gives up after timeout.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Notifier.
func (w *Webhook) Name() string { return "webhook" }

// Notify implements Notifier. Any non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP mails the payload through an authenticated relay.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string

	send SendMailFunc
}

// NewSMTP returns an SMTP notifier using smtp.SendMail.
func NewSMTP(host string, port int, username, password, to string) *SMTP {
	return &SMTP{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		To:       to,
		send:     smtp.SendMail,
	}
}

// Name implements Notifier.
func (s *SMTP) Name() string { return "smtp" }

// Notify implements Notifier. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTP) Notify(ctx context.Context, p Payload) error {
	if s.Username == "" || s.Password == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	to := s.To
	if to == "" {
		to = s.Username
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	if err := s.send(addr, auth, s.Username, []string{to}, s.message(to, p)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

func (s *SMTP) message(to string, p Payload) []byte {
	subject := "Portfolio Contact: " + headerSafe(p.Name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, p.Name, p.Email, p.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + s.Username + "\r\n" +
		"Reply-To: " + headerSafe(p.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// headerSafe strips line breaks so visitor input cannot inject headers.
func headerSafe(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// NewNotifier builds the Notifier named by transport. It returns nil when
// the chosen transport lacks the settings it needs.
func NewNotifier(transport, webhookURL string, timeout time.Duration, smtpCfg SMTP) Notifier {
	switch transport {
	case "webhook":
		if webhookURL == "" {
			return nil
		}
		return NewWebhook(webhookURL, timeout)
	case "smtp":
		if smtpCfg.Username == "" || smtpCfg.Password == "" {
			return nil
		}
		return NewSMTP(smtpCfg.Host, smtpCfg.Port, smtpCfg.Username, smtpCfg.Password, smtpCfg.To)
	default:
		return nil
	}
}
