package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Encryption material never leaves the service.
type DocumentResponse struct {
	DocumentID    string    `json:"documentId"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	Status        string    `json:"status"`
	Provider      *string   `json:"provider,omitempty"`
	InvoiceNumber *string   `json:"invoiceNumber,omitempty"`
	Currency      *string   `json:"currency,omitempty"`
	Amount        *float64  `json:"amount,omitempty"`
	IssueDate     *string   `json:"issueDate,omitempty"`
	Tags          []string  `json:"tags"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListResponse is a page of documents plus its pagination envelope.
type ListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Pages     int                `json:"pages"`
	Limit     int                `json:"limit"`
}

func toResponse(doc Document, tags []string) DocumentResponse {
	if tags == nil {
		tags = []string{}
	}
	var issueDate *string
	if doc.IssueDate != nil {
		formatted := doc.IssueDate.Format("2006-01-02")
		issueDate = &formatted
	}
	return DocumentResponse{
		DocumentID:    doc.ID,
		FileName:      doc.FileName,
		MimeType:      doc.MimeType,
		SizeBytes:     doc.SizeBytes,
		Status:        string(doc.Status),
		Provider:      doc.Provider,
		InvoiceNumber: doc.InvoiceNumber,
		Currency:      doc.Currency,
		Amount:        doc.Amount,
		IssueDate:     issueDate,
		Tags:          tags,
		UploadedAt:    doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
