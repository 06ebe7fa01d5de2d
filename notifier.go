package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const smtpDialTimeout = 10 * time.Second

// Notifier delivers feedback notifications to the routed department. With
// no SMTP host configured it only logs a simulated line, which is the
// expected default, not an error. A Slack mirror can be configured on top;
// it never affects the notified flag.
type Notifier struct {
	cfg   Config
	slack *slack.Client
}

func NewNotifier(cfg Config) *Notifier {
	n := &Notifier{cfg: cfg}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		n.slack = slack.New(cfg.SlackBotToken)
	}
	return n
}

// Notify returns true only when a real send was attempted and succeeded.
// Delivery failures are logged and reported as false, never raised.
func (n *Notifier) Notify(fb Feedback) bool {
	n.postSlack(fb)

	if n.cfg.SMTPHost == "" {
		log.Printf("notify simulated department=%s email=%s text=%q",
			fb.Department, fb.DepartmentEmail, truncate(fb.Text, 120))
		return false
	}

	if err := n.sendMail(fb); err != nil {
		log.Printf("notify send failed to=%s err=%v", fb.DepartmentEmail, err)
		return false
	}
	log.Printf("notify sent to=%s category=%s", fb.DepartmentEmail, fb.Category)
	return true
}

func (n *Notifier) sendMail(fb Feedback) error {
	host := n.cfg.SMTPHost
	addr := net.JoinHostPort(host, strconv.Itoa(n.cfg.SMTPPort))

	conn, err := net.DialTimeout("tcp", addr, smtpDialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if n.cfg.SMTPTLSEnabled() {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if n.cfg.SMTPUser != "" && n.cfg.SMTPPass != "" {
		auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPass, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	from := n.cfg.FromAddress()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(fb.DepartmentEmail); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write(buildMailMessage(from, fb)); err != nil {
		wc.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return client.Quit()
}

func buildMailMessage(from string, fb Feedback) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", fb.DepartmentEmail)
	fmt.Fprintf(&b, "Subject: Parent feedback — %s\r\n", fb.Category)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Parent: %s\r\n", orDefault(fb.ParentName, "Anonymous"))
	fmt.Fprintf(&b, "Student: %s\r\n", orDefault(fb.StudentName, "N/A"))
	fmt.Fprintf(&b, "Contact: %s\r\n", orDefault(fb.Contact, "N/A"))
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Message:\r\n%s\r\n", fb.Text)
	return []byte(b.String())
}

func (n *Notifier) postSlack(fb Feedback) {
	if n.slack == nil {
		return
	}
	msg := fmt.Sprintf("New %s/%s feedback routed to %s: %s",
		fb.Category, fb.Sentiment, fb.Department, truncate(fb.Text, 120))
	if _, _, err := n.slack.PostMessage(n.cfg.SlackChannelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("notify slack post failed channel=%s err=%v", n.cfg.SlackChannelID, err)
	}
}

// PostDigest mirrors a digest summary to the Slack channel when configured.
func (n *Notifier) PostDigest(summary string) {
	if n.slack == nil {
		return
	}
	if _, _, err := n.slack.PostMessage(n.cfg.SlackChannelID, slack.MsgOptionText(summary, false)); err != nil {
		log.Printf("digest slack post failed channel=%s err=%v", n.cfg.SlackChannelID, err)
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
