package tags

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service applies inferred tags to documents and serves the tag cloud.
type Service struct {
	repo Repo
}

// NewService creates a tag service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Apply merges candidate tags into the shared vocabulary and links the
// results to the document. Candidates that collapse into an existing tag
// reuse it; the rest become new vocabulary entries visible to later merges
// within the same batch.
func (s *Service) Apply(ctx context.Context, tenantID, documentID string, candidates []string) error {
	if len(candidates) == 0 {
		return nil
	}

	vocabulary, err := s.repo.Vocabulary(ctx)
	if err != nil {
		return fmt.Errorf("tags: load vocabulary: %w", err)
	}

	for _, candidate := range candidates {
		target, ok := Canonical(candidate, vocabulary)
		if !ok {
			target, err = s.repo.Ensure(ctx, Tag{ID: uuid.NewString(), Name: candidate})
			if err != nil {
				return err
			}
			vocabulary = append(vocabulary, target)
		}
		if err := s.repo.Attach(ctx, tenantID, documentID, target.ID); err != nil {
			return err
		}
	}
	return nil
}

// For returns the tag names linked to a document.
func (s *Service) For(ctx context.Context, documentID string) ([]string, error) {
	return s.repo.ForDocument(ctx, documentID)
}

// Forget drops every tag association for a document.
func (s *Service) Forget(ctx context.Context, documentID string) error {
	return s.repo.DetachDocument(ctx, documentID)
}

// Usage returns the tenant's tag cloud, most used first.
func (s *Service) Usage(ctx context.Context, tenantID string) ([]UsageCount, error) {
	counts, err := s.repo.UsageCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []UsageCount{}
	}
	return counts, nil
}
