package mailer

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	Subject     string
	Body        string
	From        string
	To          []string
	Cc          []string
	Attachments []Attachment
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

func (s *SMTPMailer) Send(msg *Message) error {
	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	return d.DialAndSend(build(msg))
}

func build(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}),
		)
	}
	return m
}

// Outbox keeps messages in memory instead of sending them.
type Outbox struct {
	mu       sync.Mutex
	Messages []*Message
}

func (o *Outbox) Send(msg *Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Messages = append(o.Messages, msg)
	logrus.Infof("outbox: %q to %v", msg.Subject, msg.To)
	return nil
}

func (o *Outbox) Last() *Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Messages) == 0 {
		return nil
	}
	return o.Messages[len(o.Messages)-1]
}
