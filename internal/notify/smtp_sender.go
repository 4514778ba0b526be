package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// SMTPSender delivers messages over unauthenticated SMTP (Mailpit-compatible
// in dev). Real template rendering lives with the mail pipeline; here the
// template id becomes the subject tag and the data a plain key/value body,
// which is enough for the operator to act on and for manual resends.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@hibiki-studio.example"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (s *SMTPSender) Send(_ context.Context, recipient, templateID string, data map[string]string) error {
	msg := buildMessage(s.from, recipient, "[hibiki-studio] "+templateID, buildBody(data))
	if err := smtp.SendMail(s.addr, nil, s.from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

func buildBody(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, data[k])
	}
	return b.String()
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
