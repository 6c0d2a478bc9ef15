package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fields is the structured result of heuristic extraction over noisy OCR
// text. Every field is optional; a nil pointer means no plausible match.
type Fields struct {
	Amount        *float64
	IssueDate     *time.Time
	RawDate       *string
	InvoiceNumber *string
	Provider      *string
}

// Amount patterns in precedence order: a number adjacent to a currency marker
// wins over a bare decimal, so invoice numbers are not mistaken for totals.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:€|\$|eur|usd)\s*([0-9]+(?:[.,][0-9]{1,2})?)`),
	regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]{1,2})?)\s*(?:€|\$|eur|usd)\b`),
	regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]{1,2})?)\s*(?:€|\$)`),
	regexp.MustCompile(`\b([0-9]+[.,][0-9]{2})\b`),
}

var datePattern = regexp.MustCompile(`\b([0-3]?[0-9])[./-]([01]?[0-9])[./-]([0-9]{2,4})\b`)

var invoicePattern = regexp.MustCompile(`(?i)\b(?:factura|invoice|ticket|recibo)\s*(?:n[ºo°]\.?\s*)?[#:]?\s*([0-9]+)`)

// providerPattern captures a capitalized word sequence after a preposition.
// Letter classes include Spanish accented capitals so OCR of native text works.
var providerPattern = regexp.MustCompile(`\b(?:de|from|para|to)\s+((?:[A-ZÁÉÍÓÚÑÜ][\p{L}0-9&.-]*)(?:\s+[A-ZÁÉÍÓÚÑÜ][\p{L}0-9&.-]*)*)`)

// Parse extracts structured fields from unstructured text. First plausible
// match wins per field; unset fields stay nil. This is best-effort heuristic
// extraction, not guaranteed correctness.
func Parse(text string) Fields {
	var out Fields
	if strings.TrimSpace(text) == "" {
		return out
	}

	out.Amount = parseAmount(text)
	out.RawDate, out.IssueDate = parseDate(text)
	out.InvoiceNumber = parseInvoiceNumber(text)
	out.Provider = parseProvider(text)
	return out
}

func parseAmount(text string) *float64 {
	for _, pattern := range amountPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		normalized := strings.ReplaceAll(m[1], ",", ".")
		val, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			continue
		}
		return &val
	}
	return nil
}

func parseDate(text string) (*string, *time.Time) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	raw := m[0]

	day, errD := strconv.Atoi(m[1])
	month, errM := strconv.Atoi(m[2])
	year, errY := strconv.Atoi(m[3])
	if errD != nil || errM != nil || errY != nil {
		return &raw, nil
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return &raw, nil
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject rollovers like 31/02 that time.Date silently normalizes.
	if parsed.Day() != day || int(parsed.Month()) != month {
		return &raw, nil
	}
	return &raw, &parsed
}

func parseInvoiceNumber(text string) *string {
	m := invoicePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	num := m[1]
	return &num
}

func parseProvider(text string) *string {
	m := providerPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name := strings.TrimRight(strings.TrimSpace(m[1]), ".-")
	if name == "" {
		return nil
	}
	return &name
}
