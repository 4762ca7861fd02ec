package relevance

import (
	"strings"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Match holds the tickers an article touches, each list in holdings order
type Match struct {
	Direct []string
	Macro  []string
}

// Affected returns direct matches followed by macro-only matches, without duplicates
func (m Match) Affected() []string {
	seen := make(map[string]bool, len(m.Direct)+len(m.Macro))
	out := make([]string, 0, len(m.Direct)+len(m.Macro))
	for _, list := range [][]string{m.Direct, m.Macro} {
		for _, t := range list {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Empty reports whether nothing matched
func (m Match) Empty() bool {
	return len(m.Direct) == 0 && len(m.Macro) == 0
}

// Extract finds which holdings an article's text touches
func Extract(text string, holdings []models.Holding) Match {
	return Match{
		Direct: DirectTickers(text, holdings),
		Macro:  MacroTickers(text, holdings),
	}
}

// Normalize lower-cases text and replaces everything outside [a-z0-9\s] with a space
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case isSpace(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

// DirectTickers returns held tickers mentioned in text as whole tokens.
// A ticker occurrence counts when neither neighbour is an A-Z letter.
func DirectTickers(text string, holdings []models.Holding) []string {
	upper := strings.ToUpper(text)
	var out []string
	for _, h := range holdings {
		ticker := h.NormalizedTicker()
		if ticker == "" {
			continue
		}
		if containsToken(upper, ticker) {
			out = append(out, ticker)
		}
	}
	return out
}

// ContainsTicker reports whether text mentions ticker as a whole token
func ContainsTicker(text, ticker string) bool {
	ticker = strings.ToUpper(ticker)
	if ticker == "" {
		return false
	}
	return containsToken(strings.ToUpper(text), ticker)
}

func containsToken(upper, ticker string) bool {
	from := 0
	for from <= len(upper)-len(ticker) {
		i := strings.Index(upper[from:], ticker)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(ticker)
		if !isUpperLetterAt(upper, start-1) && !isUpperLetterAt(upper, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isUpperLetterAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	return s[i] >= 'A' && s[i] <= 'Z'
}

// MacroTickers returns holdings plausibly exposed to macro keywords present in text
func MacroTickers(text string, holdings []models.Holding) []string {
	lower := Normalize(text)

	var fired []MacroImpact
	for _, m := range macroImpacts {
		if strings.Contains(lower, m.Keyword) {
			fired = append(fired, m)
		}
	}
	if len(fired) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, h := range holdings {
		ticker := h.NormalizedTicker()
		if ticker == "" || seen[ticker] {
			continue
		}
		for _, m := range fired {
			if exposedTo(ticker, m) {
				seen[ticker] = true
				out = append(out, ticker)
				break
			}
		}
	}
	return out
}

func exposedTo(ticker string, m MacroImpact) bool {
	if broadMarketETFs[ticker] {
		return true
	}
	for _, sector := range m.Sectors {
		if strings.Contains(ticker, strings.ToUpper(sector)) {
			return true
		}
		if sector == "bonds" && bondETFs[ticker] {
			return true
		}
	}
	return false
}

// FirstMacroKeyword returns the first dictionary keyword present in text
func FirstMacroKeyword(text string) (MacroImpact, bool) {
	lower := Normalize(text)
	for _, m := range macroImpacts {
		if strings.Contains(lower, m.Keyword) {
			return m, true
		}
	}
	return MacroImpact{}, false
}
