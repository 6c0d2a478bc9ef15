package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"docvault-backend/internal/shared/metrics"
)

// Boost weights for exact-substring hits per field. Applied on top of the
// baseline relevance, additively; one document can collect several.
const (
	boostFileName = 10
	boostProvider = 8
	boostInvoice  = 12
	boostOCRText  = 5
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Filters are the optional structured predicates of a filtered search.
// All supplied filters must hold (conjunctive).
type Filters struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Provider  string
	MinAmount *float64
	MaxAmount *float64
	Currency  string
}

// Query is one filtered-search request.
type Query struct {
	Text    string
	Filters Filters
	Limit   int
	Offset  int
}

// Match is a scored search hit.
type Match struct {
	Candidate Candidate
	Score     int
}

// Result is one page of matches plus the pagination envelope.
type Result struct {
	Matches []Match
	Total   int
	Pages   int
	Limit   int
	Offset  int
}

// Service evaluates filtered, smart and suggestion queries over a Source.
type Service struct {
	Source Source
}

// NewService constructs a search service.
func NewService(source Source) *Service {
	return &Service{Source: source}
}

// Search runs a filtered search: conjunctive predicate, baseline relevance
// (count of matching text fields) tie-broken by recency, then the additive
// boost pass and a final re-sort by boosted score.
func (s *Service) Search(ctx context.Context, tenantID string, q Query) (Result, error) {
	metrics.IncSearch()
	q.Limit, q.Offset = clampPage(q.Limit, q.Offset)

	candidates, err := s.Source.Candidates(ctx, tenantID)
	if err != nil {
		return Result{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	var matches []Match
	for _, c := range candidates {
		if !passesFilters(c, q.Filters) {
			continue
		}
		base := relevance(c, needle)
		if needle != "" && base == 0 {
			continue
		}
		matches = append(matches, Match{Candidate: c, Score: base})
	}

	sortByScoreThenRecency(matches)

	for i := range matches {
		matches[i].Score += boosts(matches[i].Candidate, needle)
		if matches[i].Score < 0 {
			matches[i].Score = 0
		}
	}
	sortByScoreThenRecency(matches)

	return paginate(matches, q.Limit, q.Offset), nil
}

// Smart parses the raw query into structured slots and matches on them,
// ordered by recency only. The missing boost pass relative to Search is
// intentional.
func (s *Service) Smart(ctx context.Context, tenantID, rawQuery string, limit, offset int) (Result, error) {
	metrics.IncSearch()
	limit, offset = clampPage(limit, offset)

	slots := Analyze(rawQuery)
	candidates, err := s.Source.Candidates(ctx, tenantID)
	if err != nil {
		return Result{}, err
	}

	needle := strings.ToLower(slots.FreeText)
	var matches []Match
	for _, c := range candidates {
		if !passesSlots(c, slots, needle) {
			continue
		}
		matches = append(matches, Match{Candidate: c})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Candidate.CreatedAt.After(matches[j].Candidate.CreatedAt)
	})
	return paginate(matches, limit, offset), nil
}

// Suggestion is one typed completion value.
type Suggestion struct {
	Value string `json:"value"`
	Kind  string `json:"kind"`
}

const (
	minSuggestionPrefix   = 2
	maxSuggestionsPerKind = 5
)

// Suggest returns up to 5 distinct values per field kind whose text contains
// the prefix. Prefixes shorter than 2 runes yield nothing.
func (s *Service) Suggest(ctx context.Context, tenantID, prefix string) ([]Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) < minSuggestionPrefix {
		return []Suggestion{}, nil
	}

	candidates, err := s.Source.Candidates(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(prefix)
	out := []Suggestion{}
	out = append(out, collect(candidates, needle, "provider", func(c Candidate) string { return c.Provider })...)
	out = append(out, collect(candidates, needle, "invoiceNumber", func(c Candidate) string { return c.InvoiceNumber })...)
	out = append(out, collect(candidates, needle, "amount", func(c Candidate) string {
		if c.Amount == nil {
			return ""
		}
		return trimAmount(*c.Amount)
	})...)
	return out, nil
}

func collect(candidates []Candidate, needle, kind string, value func(Candidate) string) []Suggestion {
	seen := make(map[string]struct{})
	var out []Suggestion
	for _, c := range candidates {
		v := value(c)
		if v == "" || !strings.Contains(strings.ToLower(v), needle) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, Suggestion{Value: v, Kind: kind})
		if len(out) == maxSuggestionsPerKind {
			break
		}
	}
	return out
}

func trimAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func relevance(c Candidate, needle string) int {
	if needle == "" {
		return 0
	}
	score := 0
	if strings.Contains(strings.ToLower(c.FileName), needle) {
		score++
	}
	if strings.Contains(strings.ToLower(c.Provider), needle) {
		score++
	}
	if strings.Contains(strings.ToLower(c.InvoiceNumber), needle) {
		score++
	}
	if strings.Contains(strings.ToLower(c.OCRText), needle) {
		score++
	}
	return score
}

func boosts(c Candidate, needle string) int {
	if needle == "" {
		return 0
	}
	boost := 0
	if strings.Contains(strings.ToLower(c.FileName), needle) {
		boost += boostFileName
	}
	if strings.Contains(strings.ToLower(c.Provider), needle) {
		boost += boostProvider
	}
	if strings.Contains(strings.ToLower(c.InvoiceNumber), needle) {
		boost += boostInvoice
	}
	if strings.Contains(strings.ToLower(c.OCRText), needle) {
		boost += boostOCRText
	}
	return boost
}

func passesFilters(c Candidate, f Filters) bool {
	if f.DateFrom != nil {
		if c.IssueDate == nil || c.IssueDate.Before(*f.DateFrom) {
			return false
		}
	}
	if f.DateTo != nil {
		if c.IssueDate == nil || c.IssueDate.After(*f.DateTo) {
			return false
		}
	}
	if f.Provider != "" && !strings.Contains(strings.ToLower(c.Provider), strings.ToLower(f.Provider)) {
		return false
	}
	if f.MinAmount != nil {
		if c.Amount == nil || *c.Amount < *f.MinAmount {
			return false
		}
	}
	if f.MaxAmount != nil {
		if c.Amount == nil || *c.Amount > *f.MaxAmount {
			return false
		}
	}
	if f.Currency != "" && !strings.EqualFold(c.Currency, f.Currency) {
		return false
	}
	return true
}

func passesSlots(c Candidate, slots Slots, needle string) bool {
	if slots.Amount != nil {
		if c.Amount == nil || !amountEqual(*c.Amount, *slots.Amount) {
			return false
		}
	}
	if slots.Date != nil {
		if c.IssueDate == nil || !sameDay(*c.IssueDate, *slots.Date) {
			return false
		}
	}
	if slots.Provider != "" && !strings.Contains(strings.ToLower(c.Provider), strings.ToLower(slots.Provider)) {
		return false
	}
	if needle != "" && relevance(c, needle) == 0 {
		return false
	}
	return true
}

func amountEqual(a, b float64) bool {
	diff := a - b
	return diff < 0.005 && diff > -0.005
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func sortByScoreThenRecency(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Candidate.CreatedAt.After(matches[j].Candidate.CreatedAt)
	})
}

func clampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func paginate(matches []Match, limit, offset int) Result {
	total := len(matches)
	pages := (total + limit - 1) / limit

	if offset >= total {
		return Result{Matches: []Match{}, Total: total, Pages: pages, Limit: limit, Offset: offset}
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Result{Matches: matches[offset:end], Total: total, Pages: pages, Limit: limit, Offset: offset}
}
