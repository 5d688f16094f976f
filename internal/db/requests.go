package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carematch/internal/models"
)

// requestColumns is the standard column list for request queries.
const requestColumns = `r.id, r.pin_id, r.category_id, r.title, r.description, r.status,
	r.view_count, r.shortlist_count, r.created_at, r.updated_at, COALESCE(c.name, '')`

const requestFrom = ` FROM requests r LEFT JOIN categories c ON c.id = r.category_id`

// scanRequest scans a row into a Request struct.
func scanRequest(row pgx.Row) (*models.Request, error) {
	var r models.Request
	err := row.Scan(
		&r.ID,
		&r.PinID,
		&r.CategoryID,
		&r.Title,
		&r.Description,
		&r.Status,
		&r.ViewCount,
		&r.ShortlistCount,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.CategoryName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanRequests scans multiple rows into a slice of Requests.
func scanRequests(rows pgx.Rows) ([]models.Request, error) {
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// CreateRequest inserts a new help request.
func (d *DB) CreateRequest(ctx context.Context, r *models.Request) error {
	query := `
		INSERT INTO requests (pin_id, category_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, view_count, shortlist_count, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		r.PinID,
		r.CategoryID,
		r.Title,
		r.Description,
		r.Status,
	).Scan(&r.ID, &r.ViewCount, &r.ShortlistCount, &r.CreatedAt, &r.UpdatedAt)

	if isPgError(err, pgForeignKeyViolation) {
		return ErrCategoryNotFound
	}
	return err
}

// GetRequestByID retrieves a request by id.
func (d *DB) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	return scanRequest(d.Pool.QueryRow(ctx, `SELECT `+requestColumns+requestFrom+` WHERE r.id = $1`, id))
}

// UpdateRequest saves category, title, description and status.
func (d *DB) UpdateRequest(ctx context.Context, r *models.Request) error {
	query := `
		UPDATE requests
		SET category_id = $1, title = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := d.Pool.QueryRow(ctx, query, r.CategoryID, r.Title, r.Description, r.Status, r.ID).Scan(&r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if isPgError(err, pgForeignKeyViolation) {
		return ErrCategoryNotFound
	}
	return err
}

// DeleteRequest removes a request together with every shortlist entry pointing at it.
func (d *DB) DeleteRequest(ctx context.Context, id int64) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM shortlists WHERE request_id = $1`, id); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrRequestNotFound
		}
		return nil
	})
}

// IncrementRequestViews bumps the view counter of a request.
func (d *DB) IncrementRequestViews(ctx context.Context, id int64) error {
	result, err := d.Pool.Exec(ctx, `UPDATE requests SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func requestWhere(f models.RequestFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.PinID != nil {
		w.add("r.pin_id = ?", *f.PinID)
	}
	if f.Title != "" {
		w.add(`r.title ILIKE ? ESCAPE '\'`, containsPattern(f.Title))
	}
	if f.Status != nil {
		w.add("r.status = ?", *f.Status)
	}
	if f.CategoryID != nil {
		w.add("r.category_id = ?", *f.CategoryID)
	}
	if f.From != nil {
		w.add("r.created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("r.created_at < ?", *f.To)
	}
	return w
}

// SearchRequests returns one page of requests matching the filter, newest first.
func (d *DB) SearchRequests(ctx context.Context, f models.RequestFilter) (models.Page[models.Request], error) {
	w := requestWhere(f)

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests r`+w.clause(), w.args...).Scan(&total); err != nil {
		return models.Page[models.Request]{}, err
	}

	page := f.Page.Normalize()
	limit, args := w.limitOffset(page.Size, page.Offset())
	rows, err := d.Pool.Query(ctx,
		`SELECT `+requestColumns+requestFrom+w.clause()+` ORDER BY r.created_at DESC, r.id DESC`+limit, args...)
	if err != nil {
		return models.Page[models.Request]{}, err
	}

	requests, err := scanRequests(rows)
	if err != nil {
		return models.Page[models.Request]{}, err
	}
	return models.NewPage(requests, total, page), nil
}

// CountRequestsByStatus counts requests per status, optionally for one owner.
func (d *DB) CountRequestsByStatus(ctx context.Context, pinID *int64) (models.StatusCounts, error) {
	var w whereBuilder
	if pinID != nil {
		w.add("pin_id = ?", *pinID)
	}

	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM requests`+w.clause()+` GROUP BY status`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(models.StatusCounts)
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status models.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
