package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carematch/internal/models"
)

const profileColumns = `id, name, description, is_active, created_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile.
func (d *DB) CreateProfile(ctx context.Context, p *models.Profile) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO profiles (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.Name, p.Description, p.IsActive).Scan(&p.ID, &p.CreatedAt)

	if isPgError(err, pgUniqueViolation) {
		return ErrDuplicateProfile
	}
	return err
}

// GetProfileByID retrieves a profile by id.
func (d *DB) GetProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	return scanProfile(d.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

// GetProfileByName retrieves a profile by its unique name.
func (d *DB) GetProfileByName(ctx context.Context, name string) (*models.Profile, error) {
	return scanProfile(d.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE name = $1`, name))
}

// UpdateProfile saves a profile's name and description.
func (d *DB) UpdateProfile(ctx context.Context, p *models.Profile) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE profiles SET name = $1, description = $2 WHERE id = $3`, p.Name, p.Description, p.ID)
	if isPgError(err, pgUniqueViolation) {
		return ErrDuplicateProfile
	}
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SetProfileActive suspends or reactivates a profile.
func (d *DB) SetProfileActive(ctx context.Context, id int64, active bool) error {
	result, err := d.Pool.Exec(ctx, `UPDATE profiles SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// ListProfiles returns one page of profiles ordered by id.
func (d *DB) ListProfiles(ctx context.Context, page models.PageRequest) (models.Page[models.Profile], error) {
	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return models.Page[models.Profile]{}, err
	}

	page = page.Normalize()
	rows, err := d.Pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY id LIMIT $1 OFFSET $2`, page.Size, page.Offset())
	if err != nil {
		return models.Page[models.Profile]{}, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return models.Page[models.Profile]{}, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Profile]{}, err
	}

	return models.NewPage(profiles, total, page), nil
}
