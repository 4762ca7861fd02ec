package ai

import (
	"regexp"
	"strings"
)

const promptSeparator = "=== USER PROMPT ==="

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// SplitPrompt splits template output into system and user prompts
func SplitPrompt(output string) (systemPrompt string, userPrompt string) {
	idx := strings.Index(output, promptSeparator)
	if idx == -1 {
		return "", strings.TrimSpace(output)
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(promptSeparator):])
	return systemPrompt, userPrompt
}

// ExtractJSONArray pulls a JSON array out of a model reply: fenced code first,
// then the span from the first '[' to the last ']'. Returns "" when none exists.
func ExtractJSONArray(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 {
		inner := strings.TrimSpace(m[1])
		if strings.HasPrefix(inner, "[") {
			return inner
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// Truncate shortens s to maxLen runes, appending "..." when cut
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
