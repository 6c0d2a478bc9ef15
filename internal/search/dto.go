package search

import "time"

// SearchRequest is the filtered-search payload.
type SearchRequest struct {
	Query     string   `json:"query"`
	DateFrom  *string  `json:"dateFrom"`
	DateTo    *string  `json:"dateTo"`
	Provider  string   `json:"provider"`
	MinAmount *float64 `json:"minAmount"`
	MaxAmount *float64 `json:"maxAmount"`
	Currency  string   `json:"currency"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

// SmartRequest is the natural-language search payload.
type SmartRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ResultItem is one search hit as returned over HTTP.
type ResultItem struct {
	DocumentID    string    `json:"documentId"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	Provider      *string   `json:"provider,omitempty"`
	InvoiceNumber *string   `json:"invoiceNumber,omitempty"`
	Currency      *string   `json:"currency,omitempty"`
	Amount        *float64  `json:"amount,omitempty"`
	IssueDate     *string   `json:"issueDate,omitempty"`
	Score         int       `json:"score"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// SearchResponse is a page of hits plus the pagination envelope.
type SearchResponse struct {
	Results []ResultItem `json:"results"`
	Total   int          `json:"total"`
	Pages   int          `json:"pages"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

func toResponse(res Result) SearchResponse {
	items := make([]ResultItem, 0, len(res.Matches))
	for _, m := range res.Matches {
		items = append(items, toItem(m))
	}
	return SearchResponse{
		Results: items,
		Total:   res.Total,
		Pages:   res.Pages,
		Limit:   res.Limit,
		Offset:  res.Offset,
	}
}

func toItem(m Match) ResultItem {
	c := m.Candidate
	item := ResultItem{
		DocumentID: c.ID,
		FileName:   c.FileName,
		MimeType:   c.MimeType,
		SizeBytes:  c.SizeBytes,
		Amount:     c.Amount,
		Score:      m.Score,
		UploadedAt: c.CreatedAt,
	}
	if c.Provider != "" {
		item.Provider = &c.Provider
	}
	if c.InvoiceNumber != "" {
		item.InvoiceNumber = &c.InvoiceNumber
	}
	if c.Currency != "" {
		item.Currency = &c.Currency
	}
	if c.IssueDate != nil {
		formatted := c.IssueDate.Format("2006-01-02")
		item.IssueDate = &formatted
	}
	return item
}
