package scoring

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/selivandex/portfolio-digest/internal/relevance"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

const (
	directBase = 7
	macroBase  = 3
)

var (
	maxExposureBonus = decimal.NewFromInt(3)
	maxShockBonus    = decimal.NewFromInt(2)
	exposureDivisor  = decimal.NewFromInt(10)
	shockStep        = decimal.NewFromFloat(0.5)
	minScore         = decimal.NewFromInt(models.MinImpactScore)
	maxScore         = decimal.NewFromInt(models.MaxImpactScore)
)

// shockKeywords mark events that move prices; each distinct one adds half a point
var shockKeywords = []string{
	"surge", "plunge", "crash", "soar", "record", "beats", "misses",
	"bankruptcy", "recall", "investigation", "fine", "layoffs", "downgrade",
	"upgrade", "merger", "acquisition", "ipo", "guidance cut", "guidance raise",
}

var crisisPattern = regexp.MustCompile(`crash|plunge|bankruptcy|recall|emergency|halt|suspended|fraud`)

// Score calculates impact score (1-10) for an article against a portfolio
func Score(direct, macro []string, holdings []models.Holding, text string) int {
	score := decimal.Zero

	switch {
	case len(direct) > 0:
		score = score.Add(decimal.NewFromInt(directBase))
	case len(macro) > 0:
		score = score.Add(decimal.NewFromInt(macroBase))
	}

	affected := make([]string, 0, len(direct)+len(macro))
	affected = append(affected, direct...)
	affected = append(affected, macro...)
	exposure := models.ExposurePct(holdings, affected).Div(exposureDivisor)
	score = score.Add(decimal.Min(maxExposureBonus, exposure))

	shocks := decimal.NewFromInt(int64(ShockCount(text)))
	score = score.Add(decimal.Min(maxShockBonus, shocks.Mul(shockStep)))

	score = decimal.Max(minScore, decimal.Min(maxScore, score))
	return int(score.Round(0).IntPart())
}

// ShockCount counts distinct shock keywords present in text
func ShockCount(text string) int {
	lower := relevance.Normalize(text)
	count := 0
	for _, kw := range shockKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// IsUrgent reports whether an event warrants an alert outside the daily digest
func IsUrgent(score int, direct []string, text string) bool {
	if score < models.UrgentImpactScore {
		return false
	}
	return len(direct) > 0 || crisisPattern.MatchString(relevance.Normalize(text))
}

// LevelFor maps a score to its impact level
func LevelFor(score int) models.ImpactLevel {
	return models.LevelFor(score)
}

// ScoreArticle runs extraction and scoring for one article
func ScoreArticle(article models.Article, holdings []models.Holding) (relevance.Match, int, bool) {
	text := article.Text()
	match := relevance.Extract(text, holdings)
	score := Score(match.Direct, match.Macro, holdings, text)
	return match, score, IsUrgent(score, match.Direct, text)
}
