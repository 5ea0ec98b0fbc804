package archive

import (
	"context"
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func (r *Repository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS archive (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			source     TEXT NOT NULL,
			path       TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *Repository) Archive(ctx context.Context, e *Entity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO archive (id, title, source, path, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Id, e.Title, e.Source, e.Path, e.Outcome, e.CreatedAt,
	)
	return err
}

func (r *Repository) All(ctx context.Context, limit, offset int) ([]Entity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, source, path, outcome, created_at
		 FROM archive ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]Entity, 0, limit)

	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.Id, &e.Title, &e.Source, &e.Path, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return entities, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM archive WHERE id = ?`, id)
	return err
}
