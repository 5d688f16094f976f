package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carematch/internal/models"
)

// accountColumns is the standard column list for account queries.
const accountColumns = `a.id, a.name, a.email, a.password_hash, a.age, a.phone_number, a.role,
	a.profile_id, a.is_active, a.created_at, a.updated_at, COALESCE(p.name, '')`

const accountFrom = ` FROM accounts a LEFT JOIN profiles p ON p.id = a.profile_id`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Age,
		&a.PhoneNumber,
		&a.Role,
		&a.ProfileID,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ProfileName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account. Email uniqueness is case-insensitive.
func (d *DB) CreateAccount(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (name, email, password_hash, age, phone_number, role, profile_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		a.Name,
		a.Email,
		a.PasswordHash,
		a.Age,
		a.PhoneNumber,
		a.Role,
		a.ProfileID,
		a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if isPgError(err, pgUniqueViolation) {
		return ErrDuplicateEmail
	}
	if isPgError(err, pgForeignKeyViolation) {
		return ErrProfileNotFound
	}
	return err
}

// GetAccountByID retrieves an account by id.
func (d *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(d.Pool.QueryRow(ctx, `SELECT `+accountColumns+accountFrom+` WHERE a.id = $1`, id))
}

// GetAccountByEmail retrieves an account by email, ignoring case.
func (d *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(d.Pool.QueryRow(ctx, `SELECT `+accountColumns+accountFrom+` WHERE lower(a.email) = lower($1)`, email))
}

// UpdateAccount saves the mutable fields of an account, including the password hash.
func (d *DB) UpdateAccount(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, email = $2, password_hash = $3, age = $4, phone_number = $5,
			role = $6, profile_id = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		a.Name, a.Email, a.PasswordHash, a.Age, a.PhoneNumber, a.Role, a.ProfileID, a.ID,
	).Scan(&a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	if isPgError(err, pgUniqueViolation) {
		return ErrDuplicateEmail
	}
	if isPgError(err, pgForeignKeyViolation) {
		return ErrProfileNotFound
	}
	return err
}

// SetAccountActive suspends or reactivates an account.
func (d *DB) SetAccountActive(ctx context.Context, id int64, active bool) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE accounts SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListAccounts returns one page of accounts, newest first.
func (d *DB) ListAccounts(ctx context.Context, f models.AccountFilter) (models.Page[models.Account], error) {
	var w whereBuilder
	if f.Name != "" {
		w.add(`a.name ILIKE ? ESCAPE '\'`, containsPattern(f.Name))
	}
	if f.ProfileID != nil {
		w.add("a.profile_id = ?", *f.ProfileID)
	}

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts a`+w.clause(), w.args...).Scan(&total); err != nil {
		return models.Page[models.Account]{}, err
	}

	page := f.Page.Normalize()
	limit, args := w.limitOffset(page.Size, page.Offset())
	rows, err := d.Pool.Query(ctx, `SELECT `+accountColumns+accountFrom+w.clause()+` ORDER BY a.id DESC`+limit, args...)
	if err != nil {
		return models.Page[models.Account]{}, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return models.Page[models.Account]{}, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Account]{}, err
	}

	return models.NewPage(accounts, total, page), nil
}

// GetAccountStats returns the admin dashboard counters.
func (d *DB) GetAccountStats(ctx context.Context) (models.AccountStats, error) {
	var s models.AccountStats
	err := d.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE is_active),
			(SELECT COUNT(*) FROM accounts WHERE NOT is_active),
			(SELECT COUNT(*) FROM profiles)
	`).Scan(&s.Total, &s.Active, &s.Suspended, &s.Profiles)
	return s, err
}

// CountAccountsByRole returns the number of active accounts for each role.
func (d *DB) CountAccountsByRole(ctx context.Context) (map[models.Role]int, error) {
	rows, err := d.Pool.Query(ctx, `SELECT role, COUNT(*) FROM accounts WHERE is_active GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}
