package models

// RunStats aggregates one orchestrator run
type RunStats struct {
	Processed  int `json:"processed"`
	Sent       int `json:"sent"`
	UrgentSent int `json:"urgentSent"`
	Errors     int `json:"errors"`
}

// Outcome summarizes what happened to one subscriber
type Outcome string

const (
	OutcomeNoEvents            Outcome = "no_events"
	OutcomeDelivered           Outcome = "delivered"
	OutcomeDeliveredWithUrgent Outcome = "delivered_with_urgent"
	OutcomeUrgentSkipped       Outcome = "urgent_skipped"
	OutcomeFailed              Outcome = "failed"
)

// SubscriberResult is the outcome of processing one subscriber
type SubscriberResult struct {
	Err          error
	SubscriberID string
	Outcome      Outcome
	Events       int
	DailySent    bool
	DailyFailed  bool
	UrgentSent   bool
	UrgentFailed bool
}

// Add folds one subscriber result into the run totals
func (s *RunStats) Add(r SubscriberResult) {
	s.Processed++
	if r.DailySent {
		s.Sent++
	}
	if r.DailyFailed {
		s.Errors++
	}
	if r.UrgentSent {
		s.UrgentSent++
	}
	if r.UrgentFailed {
		s.Errors++
	}
	if r.Err != nil {
		s.Errors++
	}
}

// HasErrors reports whether the run completed with errors
func (s RunStats) HasErrors() bool {
	return s.Errors > 0
}
