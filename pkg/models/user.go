package models

import "time"

// Subscriber is an investor receiving digests
type Subscriber struct {
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	ID                string    `json:"id" db:"id"`
	Email             string    `json:"email" db:"email" validate:"required,email"`
	Timezone          string    `json:"timezone" db:"timezone"`
	SendTime          string    `json:"send_time" db:"send_time"`
	Holdings          []Holding `json:"holdings" db:"-" validate:"dive"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	WantsUrgentAlerts bool      `json:"wants_urgent_alerts" db:"wants_urgent_alerts"`
}

// Tickers returns the subscriber's tickers
func (s *Subscriber) Tickers() []string {
	return Tickers(s.Holdings)
}

// Location resolves the subscriber's timezone, falling back to def
func (s *Subscriber) Location(def *time.Location) *time.Location {
	if s.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return def
	}
	return loc
}
