package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

// SMTPConfig is the relay the SMTP sender talks to
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers multipart/alternative messages through an SMTP relay
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPSender creates new SMTP sender; port 465 uses implicit TLS, others STARTTLS when offered
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	s := &SMTPSender{cfg: cfg, now: time.Now}
	if cfg.Port == 465 {
		s.sendMail = s.sendImplicitTLS
	} else {
		s.sendMail = smtp.SendMail
	}
	return s
}

func (s *SMTPSender) GetName() string {
	return "smtp"
}

func (s *SMTPSender) Send(ctx context.Context, msg models.Message) models.SendResult {
	if err := ctx.Err(); err != nil {
		return models.Failed(err.Error())
	}

	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return models.Failed(fmt.Sprintf("invalid from address: %v", err))
	}

	raw, messageID, err := BuildMIME(from, msg, s.now())
	if err != nil {
		return models.Failed(err.Error())
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, from.Address, []string{msg.To}, raw); err != nil {
		return models.Failed(fmt.Sprintf("smtp send failed: %v", err))
	}

	return models.SendResult{Success: true, ID: messageID}
}

// BuildMIME renders msg as a multipart/alternative email and returns it with its Message-Id
func BuildMIME(from *mail.Address, msg models.Message, date time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("failed to generate message id: %w", err)
	}
	messageID, _ := h.MessageID()

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create mail writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create inline writer: %w", err)
	}

	if err := writePart(tw, "text/plain", msg.Text); err != nil {
		return nil, "", err
	}
	if err := writePart(tw, "text/html", msg.HTML); err != nil {
		return nil, "", err
	}

	if err := tw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close mail writer: %w", err)
	}

	return buf.Bytes(), messageID, nil
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := tw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

func (s *SMTPSender) sendImplicitTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
