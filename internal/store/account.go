package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/citetrack/apiserver/types"
)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, name, agency, role, badge, is_staff, is_active, is_superuser, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (types.Account, error) {
	var account types.Account
	var badge sql.NullInt64
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.Agency,
		&account.Role,
		&badge,
		&account.IsStaff,
		&account.IsActive,
		&account.IsSuperuser,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return types.Account{}, err
	}
	if badge.Valid {
		value := int(badge.Int64)
		account.Badge = &value
	}
	return account, nil
}

func badgeValue(badge *int) sql.NullInt64 {
	if badge == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*badge), Valid: true}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

// ListByRole returns one page of accounts with the given role plus the
// total count for that role.
func (r *AccountRepository) ListByRole(ctx context.Context, role types.Role, offset, limit int) ([]types.Account, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM accounts WHERE role = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, role).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE role = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, role, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := make([]types.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
		INSERT INTO accounts (email, name, agency, role, badge, is_staff, is_active, is_superuser, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.Email,
		account.Name,
		account.Agency,
		account.Role,
		badgeValue(account.Badge),
		account.IsStaff,
		account.IsActive,
		account.IsSuperuser,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID); err != nil {
		return types.Account{}, mapError(err)
	}
	return account, nil
}

func (r *AccountRepository) Update(ctx context.Context, account types.Account) (types.Account, error) {
	account.UpdatedAt = time.Now()

	const query = `
		UPDATE accounts
		SET email = $1,
			name = $2,
			agency = $3,
			role = $4,
			badge = $5,
			is_staff = $6,
			is_active = $7,
			is_superuser = $8,
			password_hash = $9,
			updated_at = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(
		ctx,
		query,
		account.Email,
		account.Name,
		account.Agency,
		account.Role,
		badgeValue(account.Badge),
		account.IsStaff,
		account.IsActive,
		account.IsSuperuser,
		account.PasswordHash,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return types.Account{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Account{}, err
	}
	if affected == 0 {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
