package db

import (
	"context"

	"carematch/internal/models"
)

// CreateMatchRecord appends a match record. It returns false without error when
// the (reviewer, request) pair was already recorded.
func (d *DB) CreateMatchRecord(ctx context.Context, m *models.MatchRecord) (bool, error) {
	rows, err := d.Pool.Query(ctx, `
		INSERT INTO match_records (csr_id, request_id, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (csr_id, request_id) DO NOTHING
		RETURNING id, matched_at
	`, m.CSRID, m.RequestID, m.CategoryID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	created := false
	for rows.Next() {
		if err := rows.Scan(&m.ID, &m.MatchedAt); err != nil {
			return false, err
		}
		created = true
	}
	if err := rows.Err(); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return false, ErrRequestNotFound
		}
		return false, err
	}
	return created, nil
}

// SearchMatchRecords returns one page of match history, most recent first.
func (d *DB) SearchMatchRecords(ctx context.Context, f models.MatchFilter) (models.Page[models.MatchRecord], error) {
	var w whereBuilder
	if f.CSRID != nil {
		w.add("m.csr_id = ?", *f.CSRID)
	}
	if f.PinID != nil {
		w.add("r.pin_id = ?", *f.PinID)
	}
	if f.CategoryID != nil {
		w.add("m.category_id = ?", *f.CategoryID)
	}
	if f.From != nil {
		w.add("m.matched_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("m.matched_at < ?", *f.To)
	}

	from := ` FROM match_records m
		JOIN requests r ON r.id = m.request_id
		LEFT JOIN categories c ON c.id = m.category_id
		LEFT JOIN accounts a ON a.id = m.csr_id`

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*)`+from+w.clause(), w.args...).Scan(&total); err != nil {
		return models.Page[models.MatchRecord]{}, err
	}

	page := f.Page.Normalize()
	limit, args := w.limitOffset(page.Size, page.Offset())
	rows, err := d.Pool.Query(ctx, `
		SELECT m.id, m.csr_id, m.request_id, m.category_id, m.matched_at,
			r.title, COALESCE(c.name, ''), r.pin_id, COALESCE(a.name, '')`+
		from+w.clause()+` ORDER BY m.matched_at DESC, m.id DESC`+limit, args...)
	if err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var m models.MatchRecord
		if err := rows.Scan(
			&m.ID, &m.CSRID, &m.RequestID, &m.CategoryID, &m.MatchedAt,
			&m.RequestTitle, &m.CategoryName, &m.PinID, &m.CSRName,
		); err != nil {
			return models.Page[models.MatchRecord]{}, err
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.MatchRecord]{}, err
	}

	return models.NewPage(records, total, page), nil
}

// CountMatches returns how many matches a reviewer has recorded.
func (d *DB) CountMatches(ctx context.Context, csrID int64) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_records WHERE csr_id = $1`, csrID).Scan(&count)
	return count, err
}

// CountAllMatches returns the total number of match records.
func (d *DB) CountAllMatches(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_records`).Scan(&count)
	return count, err
}
