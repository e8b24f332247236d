package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/medibook/auth-service/internal/apperror"
	"github.com/medibook/auth-service/internal/model"
	"github.com/medibook/auth-service/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

const accountColumns = `id, full_name, email, password_hash, role,
	phone, address, date_of_birth, gender, age,
	blood_group, education, experience, license_number, consultation_fee,
	bio, available_hours, profile_picture,
	google_id, reset_token, reset_token_expiry, created_at, updated_at`

// Create inserts a new account, generating its ID and timestamps. A
// duplicate email surfaces as apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.FullName,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Phone,
		account.Address,
		account.DateOfBirth,
		account.Gender,
		account.Age,
		account.BloodGroup,
		account.Education,
		account.Experience,
		account.LicenseNumber,
		account.ConsultationFee,
		account.Bio,
		account.AvailableHours,
		account.ProfilePicture,
		nullString(account.GoogleID),
		nullString(account.ResetToken),
		nullTime(account.ResetTokenExpiry),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "accounts.email") {
			return apperror.Conflict("User with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting account (email=%s): %w", account.Email, err)
	}

	return nil
}

// Save writes every mutable column of an existing account. The read-modify-
// write cycle around it provides no cross-request isolation; SQLite
// serializes the conflicting writes.
func (db *DB) Save(ctx context.Context, account *model.Account) error {
	account.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET
			full_name = ?, email = ?, password_hash = ?, role = ?,
			phone = ?, address = ?, date_of_birth = ?, gender = ?, age = ?,
			blood_group = ?, education = ?, experience = ?, license_number = ?,
			consultation_fee = ?, bio = ?, available_hours = ?, profile_picture = ?,
			google_id = ?, reset_token = ?, reset_token_expiry = ?, updated_at = ?
		 WHERE id = ?`,
		account.FullName,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Phone,
		account.Address,
		account.DateOfBirth,
		account.Gender,
		account.Age,
		account.BloodGroup,
		account.Education,
		account.Experience,
		account.LicenseNumber,
		account.ConsultationFee,
		account.Bio,
		account.AvailableHours,
		account.ProfilePicture,
		nullString(account.GoogleID),
		nullString(account.ResetToken),
		nullTime(account.ResetTokenExpiry),
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating account %s: %w", account.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for account %s: %w", account.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("User")
	}

	return nil
}

// FindByID retrieves an account by its internal ID.
func (db *DB) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return db.findOne(ctx, `WHERE id = ?`, id)
}

// FindByEmail retrieves an account by its email. The match is exact and
// case-sensitive — email is the unique key as stored.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return db.findOne(ctx, `WHERE email = ?`, email)
}

// FindByResetToken retrieves the account holding an active reset token.
// Expiry is the caller's concern; this is a pure lookup.
func (db *DB) FindByResetToken(ctx context.Context, token string) (*model.Account, error) {
	return db.findOne(ctx, `WHERE reset_token = ?`, token)
}

// FindByGoogleID retrieves the account linked to a Google subject id.
func (db *DB) FindByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	return db.findOne(ctx, `WHERE google_id = ?`, googleID)
}

func (db *DB) findOne(ctx context.Context, where string, arg any) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts `+where, arg)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlite: querying account: %w", err)
	}

	return account, nil
}

// ListByRole returns all accounts with the given role, oldest first.
func (db *DB) ListByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE role = ? ORDER BY created_at`,
		string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing accounts by role %s: %w", role, err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating accounts: %w", err)
	}

	return accounts, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*model.Account, error) {
	var (
		a          model.Account
		role       string
		googleID   sql.NullString
		resetToken sql.NullString
		resetExp   sql.NullTime
	)

	err := s.Scan(
		&a.ID,
		&a.FullName,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.Phone,
		&a.Address,
		&a.DateOfBirth,
		&a.Gender,
		&a.Age,
		&a.BloodGroup,
		&a.Education,
		&a.Experience,
		&a.LicenseNumber,
		&a.ConsultationFee,
		&a.Bio,
		&a.AvailableHours,
		&a.ProfilePicture,
		&googleID,
		&resetToken,
		&resetExp,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Role = model.Role(role)
	a.GoogleID = googleID.String
	a.ResetToken = resetToken.String
	if resetExp.Valid {
		a.ResetTokenExpiry = resetExp.Time
	}

	return &a, nil
}

// nullString maps "" to NULL so the partial unique indexes on google_id
// and reset_token only bite when a value is present.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
