package tags

import "context"

// Tag is a vocabulary entry. Names are stored in normalized form and are
// globally unique.
type Tag struct {
	ID   string
	Name string
}

// UsageCount is one row of the tenant tag cloud.
type UsageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Repo persists the tag vocabulary and document associations.
type Repo interface {
	// Vocabulary returns every tag, ordered by name.
	Vocabulary(ctx context.Context) ([]Tag, error)
	// Ensure inserts the tag or returns the existing row with the same name.
	Ensure(ctx context.Context, tag Tag) (Tag, error)
	// Attach links a tag to a document. Repeated attaches are no-ops.
	Attach(ctx context.Context, tenantID, documentID, tagID string) error
	// ForDocument returns the tag names linked to a document, ordered by name.
	ForDocument(ctx context.Context, documentID string) ([]string, error)
	// DetachDocument removes every association for a document.
	DetachDocument(ctx context.Context, documentID string) error
	// UsageCounts aggregates tag usage over a tenant's ready documents,
	// most used first.
	UsageCounts(ctx context.Context, tenantID string) ([]UsageCount, error)
}
