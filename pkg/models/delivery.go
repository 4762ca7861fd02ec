package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryType distinguishes the daily digest from urgent alerts
type DeliveryType string

const (
	DeliveryDaily  DeliveryType = "DAILY"
	DeliveryUrgent DeliveryType = "URGENT"
)

// DeliveryStatus is the outcome of a send attempt
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// LocalDateLayout is the day bucket format used by the delivery log
const LocalDateLayout = "2006-01-02"

// DeliveryKey identifies one subscriber's deliveries of one type on one local day
type DeliveryKey struct {
	SubscriberID string
	Type         DeliveryType
	LocalDate    string
}

// LocalDate formats t as a day bucket in loc
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LocalDateLayout)
}

// DeliveryEntry is one row of the delivery log
type DeliveryEntry struct {
	SentAt       time.Time      `json:"sent_at" db:"sent_at"`
	ID           uuid.UUID      `json:"id" db:"id"`
	SubscriberID string         `json:"subscriber_id" db:"subscriber_id"`
	Type         DeliveryType   `json:"type" db:"type"`
	Status       DeliveryStatus `json:"status" db:"status"`
	ErrorMessage string         `json:"error_message,omitempty" db:"error_message"`
	MessageID    string         `json:"message_id,omitempty" db:"message_id"`
	LocalDate    string         `json:"local_date" db:"local_date"`
}

// NewDeliveryEntry builds a log entry for the outcome of a send
func NewDeliveryEntry(key DeliveryKey, result SendResult, at time.Time) DeliveryEntry {
	status := StatusSent
	if !result.Success {
		status = StatusFailed
	}
	return DeliveryEntry{
		ID:           uuid.New(),
		SubscriberID: key.SubscriberID,
		Type:         key.Type,
		Status:       status,
		ErrorMessage: result.Error,
		MessageID:    result.ID,
		LocalDate:    key.LocalDate,
		SentAt:       at,
	}
}

// Key returns the day bucket this entry belongs to
func (e DeliveryEntry) Key() DeliveryKey {
	return DeliveryKey{SubscriberID: e.SubscriberID, Type: e.Type, LocalDate: e.LocalDate}
}
