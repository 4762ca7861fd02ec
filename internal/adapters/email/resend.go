package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

const resendAPIURL = "https://api.resend.com/emails"

// ResendSender posts messages to the Resend API
type ResendSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewResendSender creates new Resend sender
func NewResendSender(apiKey, from, baseURL string, timeout time.Duration) *ResendSender {
	if baseURL == "" {
		baseURL = resendAPIURL
	}
	return &ResendSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		client:  &http.Client{Timeout: orDefault(timeout)},
	}
}

func (r *ResendSender) GetName() string {
	return "resend"
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r *ResendSender) Send(ctx context.Context, msg models.Message) models.SendResult {
	if r.apiKey == "" {
		return models.Failed("No RESEND_API_KEY")
	}

	body, err := json.Marshal(resendRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(body))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Failed(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var data resendResponse
	_ = json.Unmarshal(raw, &data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Failed(resendError(data, raw, resp.StatusCode))
	}

	return models.SendResult{Success: true, ID: data.ID}
}

func resendError(data resendResponse, raw []byte, status int) string {
	switch {
	case data.Message != "":
		return data.Message
	case data.Error != nil && data.Error.Message != "":
		return data.Error.Message
	case len(raw) > 0:
		return string(raw)
	default:
		return fmt.Sprintf("HTTP error %d", status)
	}
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 15 * time.Second
	}
	return timeout
}
