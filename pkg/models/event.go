package models

// ImpactLevel is the three-level classification derived from the impact score
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "Low"
	ImpactModerate ImpactLevel = "Moderate"
	ImpactHigh     ImpactLevel = "High"
)

const (
	MinImpactScore    = 1
	MaxImpactScore    = 10
	UrgentImpactScore = 8
)

// LevelFor maps an impact score to its level
func LevelFor(score int) ImpactLevel {
	switch {
	case score >= 7:
		return ImpactHigh
	case score >= 4:
		return ImpactModerate
	default:
		return ImpactLow
	}
}

// ClampScore bounds a score to [1,10]
func ClampScore(score int) int {
	if score < MinImpactScore {
		return MinImpactScore
	}
	if score > MaxImpactScore {
		return MaxImpactScore
	}
	return score
}

// Narrative is the generated part of a scored event
type Narrative struct {
	Summary          string
	WhyItMatters     string
	AffectedHoldings []string
	ImpactScore      int
	IsUrgent         bool
}

// ScoredEvent is one article judged against one subscriber's holdings
type ScoredEvent struct {
	Article

	Summary              string      `json:"summary"`
	WhyItMatters         string      `json:"why_it_matters"`
	AffectedHoldings     []string    `json:"affected_holdings"`
	PortfolioPctAffected int         `json:"portfolio_pct_affected"`
	ImpactScore          int         `json:"impact_score"`
	ImpactLevel          ImpactLevel `json:"impact_level"`
	IsUrgent             bool        `json:"is_urgent"`
}

// NewScoredEvent builds an event and enforces its invariants: the score is
// clamped, the level is derived from it, urgency requires a score of at least 8
// and exposure is always computed from the subscriber's own weights.
func NewScoredEvent(article Article, n Narrative, holdings []Holding) ScoredEvent {
	score := ClampScore(n.ImpactScore)

	affected := make([]string, len(n.AffectedHoldings))
	copy(affected, n.AffectedHoldings)

	return ScoredEvent{
		Article:              article,
		Summary:              n.Summary,
		WhyItMatters:         n.WhyItMatters,
		AffectedHoldings:     affected,
		PortfolioPctAffected: RoundPct(ExposurePct(holdings, affected)),
		ImpactScore:          score,
		ImpactLevel:          LevelFor(score),
		IsUrgent:             n.IsUrgent && score >= UrgentImpactScore,
	}
}
