package tags

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory tag store for dev mode and tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	byName    map[string]Tag
	docTags   map[string]map[string]struct{} // documentID -> tagID set
	docTenant map[string]string
	// ready tracks which documents count toward usage aggregation; the
	// Postgres repo gets this from documents.status.
	ready map[string]bool
}

// NewMemoryRepo creates an empty in-memory tag repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byName:    make(map[string]Tag),
		docTags:   make(map[string]map[string]struct{}),
		docTenant: make(map[string]string),
		ready:     make(map[string]bool),
	}
}

func (r *MemoryRepo) Vocabulary(ctx context.Context) ([]Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tag, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) Ensure(ctx context.Context, tag Tag) (Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[tag.Name]; ok {
		return existing, nil
	}
	r.byName[tag.Name] = tag
	return tag, nil
}

func (r *MemoryRepo) Attach(ctx context.Context, tenantID, documentID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.docTags[documentID]
	if !ok {
		set = make(map[string]struct{})
		r.docTags[documentID] = set
	}
	set[tagID] = struct{}{}
	r.docTenant[documentID] = tenantID
	r.ready[documentID] = true
	return nil
}

func (r *MemoryRepo) ForDocument(ctx context.Context, documentID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for tagID := range r.docTags[documentID] {
		for _, t := range r.byName {
			if t.ID == tagID {
				names = append(names, t.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRepo) DetachDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docTags, documentID)
	delete(r.docTenant, documentID)
	delete(r.ready, documentID)
	return nil
}

func (r *MemoryRepo) UsageCounts(ctx context.Context, tenantID string) ([]UsageCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for docID, set := range r.docTags {
		if r.docTenant[docID] != tenantID || !r.ready[docID] {
			continue
		}
		for tagID := range set {
			for _, t := range r.byName {
				if t.ID == tagID {
					counts[t.Name]++
					break
				}
			}
		}
	}

	out := make([]UsageCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, UsageCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
