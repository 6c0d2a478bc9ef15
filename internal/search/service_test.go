package search

import (
	"context"
	"testing"
	"time"
)

type sliceSource []Candidate

func (s sliceSource) Candidates(ctx context.Context, tenantID string) ([]Candidate, error) {
	return s, nil
}

func ptrFloat(v float64) *float64 { return &v }

func ptrTime(t time.Time) *time.Time { return &t }

func TestSearchFilenameMatchOutranksTextOnlyMatch(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := sliceSource{
		{ID: "text-only", FileName: "scan-0001.jpg", OCRText: "factura de la luz", CreatedAt: base.Add(time.Hour)},
		{ID: "filename-hit", FileName: "factura-luz.jpg", OCRText: "factura de la luz", CreatedAt: base},
	}
	svc := NewService(src)

	res, err := svc.Search(context.Background(), "t1", Query{Text: "factura"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(res.Matches))
	}
	if res.Matches[0].Candidate.ID != "filename-hit" {
		t.Fatalf("first match = %s, want filename-hit", res.Matches[0].Candidate.ID)
	}
	// base 2 (+10 filename, +5 text) vs base 1 (+5 text), despite recency.
	if res.Matches[0].Score != 17 || res.Matches[1].Score != 6 {
		t.Fatalf("scores = %d, %d; want 17, 6", res.Matches[0].Score, res.Matches[1].Score)
	}
}

func TestSearchInvoiceBoostDominates(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := sliceSource{
		{ID: "provider-hit", FileName: "a.jpg", Provider: "4521 Logistics", CreatedAt: base},
		{ID: "invoice-hit", FileName: "b.jpg", InvoiceNumber: "4521", CreatedAt: base},
	}
	svc := NewService(src)

	res, err := svc.Search(context.Background(), "t1", Query{Text: "4521"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Matches[0].Candidate.ID != "invoice-hit" {
		t.Fatalf("first match = %s, want invoice-hit (+12 beats +8)", res.Matches[0].Candidate.ID)
	}
}

func TestSearchConjunctiveFilters(t *testing.T) {
	jan := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	src := sliceSource{
		{ID: "in-range", FileName: "a.jpg", Provider: "Repsol", Amount: ptrFloat(50), IssueDate: ptrTime(mar), Currency: "EUR", CreatedAt: mar},
		{ID: "too-early", FileName: "b.jpg", Provider: "Repsol", Amount: ptrFloat(50), IssueDate: ptrTime(jan), Currency: "EUR", CreatedAt: jan},
		{ID: "too-cheap", FileName: "c.jpg", Provider: "Repsol", Amount: ptrFloat(5), IssueDate: ptrTime(mar), Currency: "EUR", CreatedAt: mar},
		{ID: "wrong-provider", FileName: "d.jpg", Provider: "Iberdrola", Amount: ptrFloat(50), IssueDate: ptrTime(mar), Currency: "EUR", CreatedAt: mar},
	}
	svc := NewService(src)

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.Search(context.Background(), "t1", Query{Filters: Filters{
		DateFrom:  &from,
		Provider:  "repsol",
		MinAmount: ptrFloat(10),
		Currency:  "eur",
	}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Candidate.ID != "in-range" {
		t.Fatalf("matches = %+v, want only in-range", res.Matches)
	}
}

func TestSearchPaginationContract(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	var src sliceSource
	for i := 0; i < 5; i++ {
		src = append(src, Candidate{
			ID:        string(rune('a' + i)),
			FileName:  "doc.jpg",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	svc := NewService(src)

	res, err := svc.Search(context.Background(), "t1", Query{Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 5 || res.Pages != 3 || len(res.Matches) != 2 {
		t.Fatalf("total=%d pages=%d page-size=%d, want 5/3/2", res.Total, res.Pages, len(res.Matches))
	}

	res, err = svc.Search(context.Background(), "t1", Query{Limit: 2, Offset: 10})
	if err != nil {
		t.Fatalf("Search offset past end: %v", err)
	}
	if res.Total != 5 || len(res.Matches) != 0 {
		t.Fatalf("offset past end: total=%d matches=%d, want 5/0", res.Total, len(res.Matches))
	}
}

func TestSmartSearchOrdersByRecencyOnly(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := sliceSource{
		{ID: "older-stronger", FileName: "factura-repsol.jpg", Provider: "Repsol", Amount: ptrFloat(45.67), CreatedAt: base},
		{ID: "newer-weaker", FileName: "scan.jpg", Provider: "Repsol Butano", Amount: ptrFloat(45.67), OCRText: "factura", CreatedAt: base.Add(time.Hour)},
	}
	svc := NewService(src)

	res, err := svc.Smart(context.Background(), "t1", "factura de Repsol 45,67", 20, 0)
	if err != nil {
		t.Fatalf("Smart: %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(res.Matches))
	}
	// No boost pass here: newest first even though the older doc matches harder.
	if res.Matches[0].Candidate.ID != "newer-weaker" {
		t.Fatalf("first match = %s, want newer-weaker", res.Matches[0].Candidate.ID)
	}
	for _, m := range res.Matches {
		if m.Score != 0 {
			t.Fatalf("smart search assigned score %d", m.Score)
		}
	}
}

func TestSmartSearchAmountSlotFilters(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := sliceSource{
		{ID: "match", FileName: "a.jpg", Amount: ptrFloat(45.67), CreatedAt: base},
		{ID: "other", FileName: "b.jpg", Amount: ptrFloat(99.00), CreatedAt: base},
	}
	svc := NewService(src)

	res, err := svc.Smart(context.Background(), "t1", "45,67", 20, 0)
	if err != nil {
		t.Fatalf("Smart: %v", err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Candidate.ID != "match" {
		t.Fatalf("matches = %+v, want only the 45.67 document", res.Matches)
	}
}

func TestSuggest(t *testing.T) {
	src := sliceSource{
		{Provider: "Repsol", InvoiceNumber: "4521", Amount: ptrFloat(45.67)},
		{Provider: "Repsol", InvoiceNumber: "7788"},
		{Provider: "Iberdrola"},
	}
	svc := NewService(src)

	got, err := svc.Suggest(context.Background(), "t1", "45")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := map[string]string{"4521": "invoiceNumber", "45.67": "amount"}
	if len(got) != len(want) {
		t.Fatalf("Suggest = %+v", got)
	}
	for _, s := range got {
		if want[s.Value] != s.Kind {
			t.Fatalf("unexpected suggestion %+v", s)
		}
	}

	// Providers deduplicate and a one-rune prefix yields nothing.
	got, _ = svc.Suggest(context.Background(), "t1", "repsol")
	if len(got) != 1 || got[0].Kind != "provider" {
		t.Fatalf("Suggest(repsol) = %+v", got)
	}
	if got, _ := svc.Suggest(context.Background(), "t1", "r"); len(got) != 0 {
		t.Fatalf("short prefix returned %+v", got)
	}
}
