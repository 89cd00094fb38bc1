package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"spendsight/internal/core"
)

func (s *Store) CreateCategory(ctx context.Context, name string, kind core.TransactionKind) (core.Category, error) {
	var c core.Category
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, kind) VALUES ($1, $2)
		RETURNING id, name, kind`,
		name, kind.String()).Scan(&c.ID, &c.Name, &c.Kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapPgError(err))
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := s.pool.QueryRow(ctx, `SELECT id, name, kind FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, core.NotFoundf("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, kind core.TransactionKind) ([]core.Category, error) {
	query := `SELECT id, name, kind FROM categories`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind.String())
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, name string, kind core.TransactionKind) (core.Category, error) {
	// A kind change would orphan transactions of the old kind.
	current, err := s.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if current.Kind != kind {
		referenced, err := s.categoryReferenced(ctx, current.Kind, id)
		if err != nil {
			return core.Category{}, err
		}
		if referenced {
			return core.Category{}, core.ErrReferentialConflict
		}
	}

	var c core.Category
	err = s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, kind = $3 WHERE id = $1
		RETURNING id, name, kind`,
		id, name, kind.String()).Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, core.NotFoundf("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", mapPgError(err))
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("category", id)
	}
	return nil
}

func (s *Store) categoryReferenced(ctx context.Context, kind core.TransactionKind, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+tableFor(kind)+` WHERE category_id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category references: %w", err)
	}
	return exists, nil
}
