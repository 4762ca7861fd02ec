package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

const sendGridAPIURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridSender posts messages to the SendGrid v3 API
type SendGridSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewSendGridSender creates new SendGrid sender
func NewSendGridSender(apiKey, from, baseURL string, timeout time.Duration) *SendGridSender {
	if baseURL == "" {
		baseURL = sendGridAPIURL
	}
	return &SendGridSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		client:  &http.Client{Timeout: orDefault(timeout)},
	}
}

func (s *SendGridSender) GetName() string {
	return "sendgrid"
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress   `json:"from"`
	Subject string            `json:"subject"`
	Content []sendGridContent `json:"content"`
}

func (s *SendGridSender) Send(ctx context.Context, msg models.Message) models.SendResult {
	if s.apiKey == "" {
		return models.Failed("No SENDGRID_API_KEY")
	}

	payload := sendGridRequest{
		From:    splitAddress(s.from),
		Subject: msg.Subject,
	}
	payload.Personalizations = make([]struct {
		To []sendGridAddress `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []sendGridAddress{{Email: msg.To}}

	// text/plain must precede text/html
	if msg.Text != "" {
		payload.Content = append(payload.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	payload.Content = append(payload.Content, sendGridContent{Type: "text/html", Value: msg.HTML})

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Failed(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(raw) == 0 {
			return models.Failed(fmt.Sprintf("HTTP error %d", resp.StatusCode))
		}
		return models.Failed(string(raw))
	}

	return models.SendResult{Success: true, ID: resp.Header.Get("X-Message-Id")}
}

// splitAddress turns "Name <a@b>" into its parts, keeping the raw string on parse failure
func splitAddress(from string) sendGridAddress {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return sendGridAddress{Email: from}
	}
	return sendGridAddress{Email: addr.Address, Name: addr.Name}
}
