package search

import (
	"strings"
	"time"

	"docvault-backend/internal/fields"
)

// Slots is the structured reading of a natural-language query. Empty slots
// were not present in the query.
type Slots struct {
	Amount   *float64
	Date     *time.Time
	Provider string
	FreeText string
}

// Tokens carrying no matchable signal once the structured slots are removed.
var stopTokens = map[string]struct{}{
	"de": {}, "del": {}, "from": {}, "para": {}, "to": {}, "a": {},
	"el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {},
	"en": {}, "con": {}, "por": {}, "the": {}, "of": {}, "for": {},
	"eur": {}, "usd": {},
}

// Analyze runs the field-extraction heuristics against a raw query string
// and splits it into structured slots plus a free-text remainder.
func Analyze(raw string) Slots {
	parsed := fields.Parse(raw)

	slots := Slots{Amount: parsed.Amount, Date: parsed.IssueDate}
	if parsed.Provider != nil {
		slots.Provider = *parsed.Provider
	}

	remainder := raw
	if parsed.RawDate != nil {
		remainder = strings.Replace(remainder, *parsed.RawDate, " ", 1)
	}
	if slots.Provider != "" {
		remainder = strings.Replace(remainder, slots.Provider, " ", 1)
	}

	var kept []string
	for _, token := range strings.Fields(remainder) {
		clean := strings.ToLower(strings.Trim(token, ".,;:#?!"))
		if clean == "" {
			continue
		}
		if _, stop := stopTokens[clean]; stop {
			continue
		}
		if looksNumeric(clean) {
			continue
		}
		kept = append(kept, strings.Trim(token, ".,;:?!"))
	}

	free := strings.Join(kept, " ")
	if len([]rune(free)) < 2 {
		free = ""
	}
	slots.FreeText = free
	return slots
}

// looksNumeric reports whether a token is a number with optional currency
// marks, i.e. already consumed by the amount slot.
func looksNumeric(token string) bool {
	token = strings.Trim(token, "€$")
	if token == "" {
		return true
	}
	for _, r := range token {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
