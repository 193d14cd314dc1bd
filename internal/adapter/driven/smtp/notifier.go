// Package smtp delivers alert messages over SMTP with STARTTLS.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// dialTimeout bounds the TCP connect so a dead SMTP host cannot stall the
// caller; delivery is best-effort anyway.
const dialTimeout = 10 * time.Second

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// Notifier implements the Notifier port over SMTP. Messages are sent from the
// authenticated account to a fixed recipient.
type Notifier struct {
	host      string
	port      int
	username  string
	password  string
	recipient string
}

// NewNotifier creates a Notifier for the given SMTP account and recipient.
func NewNotifier(host string, port int, username, password, recipient string) *Notifier {
	return &Notifier{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		recipient: recipient,
	}
}

// Notify sends one plain-text message. The ctx deadline is honored for the
// connection setup; net/smtp does not support cancellation mid-session, so
// the dial timeout keeps the worst case bounded.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(n.username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(n.recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.username, n.recipient, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}
