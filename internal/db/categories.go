package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carematch/internal/models"
)

// GetCategoryByID retrieves a category by id.
func (d *DB) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := d.Pool.QueryRow(ctx, `SELECT id, name, is_active FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActiveCategories returns every active category ordered by name.
func (d *DB) GetActiveCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := d.Pool.Query(ctx, `SELECT id, name, is_active FROM categories WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpsertCategory creates a category by name or reactivates an existing one.
func (d *DB) UpsertCategory(ctx context.Context, c *models.Category) error {
	return d.Pool.QueryRow(ctx, `
		INSERT INTO categories (name, is_active)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET is_active = EXCLUDED.is_active
		RETURNING id
	`, c.Name, c.IsActive).Scan(&c.ID)
}
