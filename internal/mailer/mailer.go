package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail over SMTP. With no host or user
// configured it runs in dev mode and logs the message instead, so
// local setups work without a mail account.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
	dev  bool
}

func New(host, port, user, pass, from string) *Mailer {
	dev := host == "" || user == ""
	if dev {
		log.Println("Mailer running in dev mode, verification codes are logged instead of sent")
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from, dev: dev}
}

// SendVerificationCode mails the account verification code. The code
// expires after ten minutes; the copy says so.
func (m *Mailer) SendVerificationCode(to, code string) error {
	subject := "Account verification - Trivia App"
	body := fmt.Sprintf(`<h2>Account verification - Trivia App</h2>
<p>Your verification code is:</p>
<h3 style="background-color: #f0f0f0; padding: 10px; text-align: center; font-size: 24px;">%s</h3>
<p>This code expires in 10 minutes.</p>`, code)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.dev {
		log.Printf("[MAIL dev] to=%s subject=%q body=%s", to, subject, htmlBody)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
