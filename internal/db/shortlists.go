package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"carematch/internal/models"
)

// AddShortlist bookmarks a request for a reviewer. It returns false without
// error when the pair already exists; the unique constraint makes concurrent
// calls for the same pair insert exactly one row.
func (d *DB) AddShortlist(ctx context.Context, csrID, requestID int64) (bool, error) {
	var added bool
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			INSERT INTO shortlists (csr_id, request_id)
			VALUES ($1, $2)
			ON CONFLICT (csr_id, request_id) DO NOTHING
		`, csrID, requestID)
		if isPgError(err, pgForeignKeyViolation) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return nil
		}

		_, err = tx.Exec(ctx,
			`UPDATE requests SET shortlist_count = shortlist_count + 1 WHERE id = $1`, requestID)
		added = err == nil
		return err
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveShortlist deletes a reviewer's bookmark.
func (d *DB) RemoveShortlist(ctx context.Context, csrID, requestID int64) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`DELETE FROM shortlists WHERE csr_id = $1 AND request_id = $2`, csrID, requestID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrShortlistNotFound
		}

		_, err = tx.Exec(ctx,
			`UPDATE requests SET shortlist_count = GREATEST(shortlist_count - 1, 0) WHERE id = $1`, requestID)
		return err
	})
}

// IsShortlisted reports whether the reviewer bookmarked the request.
func (d *DB) IsShortlisted(ctx context.Context, csrID, requestID int64) (bool, error) {
	var exists bool
	err := d.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shortlists WHERE csr_id = $1 AND request_id = $2)`,
		csrID, requestID).Scan(&exists)
	return exists, err
}

// SearchShortlist returns one page of the requests a reviewer shortlisted.
func (d *DB) SearchShortlist(ctx context.Context, f models.ShortlistFilter) (models.Page[models.Request], error) {
	var w whereBuilder
	w.add("s.csr_id = ?", f.CSRID)
	if f.CategoryID != nil {
		w.add("r.category_id = ?", *f.CategoryID)
	}

	from := ` FROM shortlists s JOIN requests r ON r.id = s.request_id LEFT JOIN categories c ON c.id = r.category_id`

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*)`+from+w.clause(), w.args...).Scan(&total); err != nil {
		return models.Page[models.Request]{}, err
	}

	page := f.Page.Normalize()
	limit, args := w.limitOffset(page.Size, page.Offset())
	rows, err := d.Pool.Query(ctx,
		`SELECT `+requestColumns+from+w.clause()+` ORDER BY s.created_at DESC, s.id DESC`+limit, args...)
	if err != nil {
		return models.Page[models.Request]{}, err
	}

	requests, err := scanRequests(rows)
	if err != nil {
		return models.Page[models.Request]{}, err
	}
	return models.NewPage(requests, total, page), nil
}

// CountShortlists returns how many requests a reviewer has shortlisted.
func (d *DB) CountShortlists(ctx context.Context, csrID int64) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM shortlists WHERE csr_id = $1`, csrID).Scan(&count)
	return count, err
}

// CountAllShortlists returns the total number of shortlist entries.
func (d *DB) CountAllShortlists(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM shortlists`).Scan(&count)
	return count, err
}
