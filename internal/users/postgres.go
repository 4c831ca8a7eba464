package users

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"factory-erp/pkg/utils"
)

//go:embed schema.sql
var schemaSQL string

// PostgresRepo implements Repository on database/sql with the pgx driver.
// It assumes the tables in schema.sql exist (see EnsureSchema).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// EnsureSchema creates the tables if they are missing. Safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, full_name, is_super_admin, is_active, created_at, updated_at`

func (r *PostgresRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, username))
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FindCompanyByCode(ctx context.Context, code string) (Company, error) {
	const q = `
SELECT id, code, name, is_active
FROM companies
WHERE upper(code) = upper($1)
`
	return scanCompany(r.db.QueryRowContext(ctx, q, code))
}

func (r *PostgresRepo) FindCompanyByID(ctx context.Context, id string) (Company, error) {
	const q = `
SELECT id, code, name, is_active
FROM companies
WHERE id = $1
`
	return scanCompany(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) ListAccess(ctx context.Context, userID string) ([]CompanyAccess, error) {
	const q = `
SELECT a.user_id, a.company_id, c.code, c.name, a.role, a.permissions, a.is_default
FROM company_access a
JOIN companies c ON c.id = a.company_id
WHERE a.user_id = $1 AND c.is_active
ORDER BY a.is_default DESC, c.name
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CompanyAccess
	for rows.Next() {
		var a CompanyAccess
		if err := rows.Scan(
			&a.UserID,
			&a.CompanyID,
			&a.CompanyCode,
			&a.CompanyName,
			&a.Role,
			&a.Permissions,
			&a.IsDefault,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, u User, access *CompanyAccess) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const insertUser = `
INSERT INTO users (
  id, username, email, password_hash, full_name, is_super_admin, is_active, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
		if _, err := tx.ExecContext(ctx, insertUser,
			u.ID,
			u.Username,
			u.Email,
			u.PasswordHash,
			u.FullName,
			u.IsSuperAdmin,
			u.IsActive,
			u.CreatedAt,
			u.UpdatedAt,
		); err != nil {
			return mapWriteErr(err)
		}
		if access == nil {
			return nil
		}

		const insertAccess = `
INSERT INTO company_access (user_id, company_id, role, permissions, is_default)
VALUES ($1,$2,$3,$4,$5)
`
		_, err := tx.ExecContext(ctx, insertAccess,
			u.ID,
			access.CompanyID,
			access.Role,
			access.Permissions,
			access.IsDefault,
		)
		return mapWriteErr(err)
	})
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsSuperAdmin,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return User{}, mapReadErr(err)
	}
	return u, nil
}

func scanCompany(row *sql.Row) (Company, error) {
	var c Company
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.IsActive); err != nil {
		return Company{}, mapReadErr(err)
	}
	return c, nil
}

// mapReadErr treats an id that is not a valid uuid like a missing row.
func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || utils.PgErrorCode(err) == utils.PgInvalidTextRepresentation {
		return ErrNotFound
	}
	return err
}

func mapWriteErr(err error) error {
	if utils.PgErrorCode(err) == utils.PgUniqueViolation {
		return ErrDuplicate
	}
	return err
}
