package tags

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxTags = 10

// categoryRule maps keyword hits in text or filename to a canonical tag.
type categoryRule struct {
	tag      string
	keywords []string
}

// Rules run in order; earlier rules produce earlier tags in the result.
var categoryRules = []categoryRule{
	{tag: "facturas", keywords: []string{"factura", "invoice"}},
	{tag: "tickets", keywords: []string{"ticket", "receipt", "recibo"}},
	{tag: "notas", keywords: []string{"nota", "note", "apunte"}},
	{tag: "impuestos", keywords: []string{"impuesto", "iva", "irpf", "tax", "hacienda"}},
	{tag: "nominas", keywords: []string{"nomina", "nómina", "payroll", "salario"}},
	{tag: "banco", keywords: []string{"banco", "bank", "transferencia", "iban"}},
}

// Infer produces up to 10 normalized candidate tags for a document from its
// OCR text, parsed provider, filename and media kind.
func Infer(text, provider, filename string, isImage bool) []string {
	haystack := strings.ToLower(text) + " " + strings.ToLower(filename)

	var candidates []string
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				candidates = append(candidates, rule.tag)
				break
			}
		}
	}
	if provider != "" {
		candidates = append(candidates, provider)
	}
	if isImage {
		candidates = append(candidates, "foto")
	}
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		candidates = append(candidates, "pdf")
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name := Normalize(c)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize casefolds, strips diacritics and drops non-alphanumeric runes.
// Tag uniqueness is defined over this form.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Singularize strips a trailing plural marker from a normalized tag.
func Singularize(name string) string {
	if len(name) > 3 && strings.HasSuffix(name, "s") {
		return strings.TrimSuffix(name, "s")
	}
	return name
}

// Canonical selects the existing vocabulary entry a candidate collapses into,
// or reports none. A candidate merges with an existing tag when they are
// equal, their singularized forms are equal, or one singularized form is a
// prefix of the other. This is a deliberate prefix/singular heuristic, not
// edit-distance matching, and it scans the whole vocabulary per candidate;
// swap the Repo lookup for an indexed one if the vocabulary grows large.
func Canonical(candidate string, vocabulary []Tag) (Tag, bool) {
	candSingular := Singularize(candidate)
	for _, existing := range vocabulary {
		if existing.Name == candidate {
			return existing, true
		}
		existingSingular := Singularize(existing.Name)
		if existingSingular == candSingular {
			return existing, true
		}
		if existingSingular != "" && candSingular != "" &&
			(strings.HasPrefix(existingSingular, candSingular) || strings.HasPrefix(candSingular, existingSingular)) {
			return existing, true
		}
	}
	return Tag{}, false
}
