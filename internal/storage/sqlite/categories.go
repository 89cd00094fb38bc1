package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spendsight/internal/core"
)

func (s *Store) CreateCategory(ctx context.Context, name string, kind core.TransactionKind) (core.Category, error) {
	var c core.Category
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, kind) VALUES (?, ?)
		RETURNING id, name, kind`,
		name, kind.String()).Scan(&c.ID, &c.Name, &c.Kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapSQLiteError(err))
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := s.db.QueryRowContext(ctx, `SELECT id, name, kind FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundf("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, kind core.TransactionKind) ([]core.Category, error) {
	query := `SELECT id, name, kind FROM categories`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind.String())
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	current, err := s.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if current.Kind != kind {
		// A kind change would orphan transactions of the old kind.
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+tableFor(current.Kind)+` WHERE category_id = ?)`, id).
			Scan(&exists)
		if err != nil {
			return core.Category{}, fmt.Errorf("check category references: %w", err)
		}
		if exists {
			return core.Category{}, core.ErrReferentialConflict
		}
	}

	var c core.Category
	err = s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = ?, kind = ? WHERE id = ?
		RETURNING id, name, kind`,
		name, kind.String(), id).Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundf("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", mapSQLiteError(err))
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", mapSQLiteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("category", id)
	}
	return nil
}
