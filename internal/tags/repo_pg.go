package tags

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo is the Postgres-backed tag store.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo creates a Postgres tag repo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

func (r *PGRepo) Vocabulary(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("tags: vocabulary query: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("tags: vocabulary scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags: vocabulary rows: %w", err)
	}
	return out, nil
}

func (r *PGRepo) Ensure(ctx context.Context, tag Tag) (Tag, error) {
	// The no-op update turns the conflict into a row we can RETURNING from.
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`,
		tag.ID, tag.Name,
	)
	var out Tag
	if err := row.Scan(&out.ID, &out.Name); err != nil {
		return Tag{}, fmt.Errorf("tags: ensure %q: %w", tag.Name, err)
	}
	return out, nil
}

func (r *PGRepo) Attach(ctx context.Context, _ string, documentID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO document_tags (document_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		documentID, tagID,
	)
	if err != nil {
		return fmt.Errorf("tags: attach: %w", err)
	}
	return nil
}

func (r *PGRepo) ForDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name
		FROM tags t
		JOIN document_tags dt ON dt.tag_id = t.id
		WHERE dt.document_id = $1
		ORDER BY t.name`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("tags: for document: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tags: for document scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags: for document rows: %w", err)
	}
	return names, nil
}

func (r *PGRepo) DetachDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("tags: detach document: %w", err)
	}
	return nil
}

func (r *PGRepo) UsageCounts(ctx context.Context, tenantID string) ([]UsageCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.name, COUNT(*) AS uses
		FROM tags t
		JOIN document_tags dt ON dt.tag_id = t.id
		JOIN documents d ON d.id = dt.document_id
		WHERE d.tenant_id = $1 AND d.status = 'ready'
		GROUP BY t.name
		ORDER BY uses DESC, t.name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("tags: usage counts: %w", err)
	}
	defer rows.Close()

	var out []UsageCount
	for rows.Next() {
		var uc UsageCount
		if err := rows.Scan(&uc.Name, &uc.Count); err != nil {
			return nil, fmt.Errorf("tags: usage counts scan: %w", err)
		}
		out = append(out, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tags: usage counts rows: %w", err)
	}
	return out, nil
}
