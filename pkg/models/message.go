package models

// Message is a composed outbound email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendResult is what a sender reports; failures are values, not errors
type SendResult struct {
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// Failed builds a failed send result
func Failed(msg string) SendResult {
	return SendResult{Success: false, Error: msg}
}
