package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

const userColumns = `id, first_name, last_name, email, username, profile_url, profile_id,
       mobile_number, password_hash, secret_key, referral_code, referred_by,
       is_email_verified, is_activated, created_at, updated_at`

// constraintFields maps unique index names to the field reported in
// conflict errors.
var constraintFields = map[string]string{
	"users_email_key":         "email",
	"users_username_key":      "username",
	"users_mobile_number_key": "mobile_number",
	"users_referral_code_key": "referral_code",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (first_name, last_name, email, username, profile_url, profile_id,
                            mobile_number, password_hash, secret_key, referral_code, referred_by)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at
		 `

	mobile := sql.NullInt64{Int64: user.MobileNumber, Valid: user.MobileNumber != 0}
	var referredBy sql.NullString
	if user.ReferredBy != nil {
		referredBy = sql.NullString{String: *user.ReferredBy, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.UserName, user.ProfileURL, user.ProfileID,
		mobile, user.PasswordHash, user.SecretKey, user.ReferralCode, referredBy,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, translate(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, id, firstName, lastName, email string) (*models.User, error) {
	query :=
		`UPDATE users SET first_name = $2, last_name = $3, email = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return r.getOne(ctx, query, id, firstName, lastName, email)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, profileURL, profileID string) (*models.User, error) {
	query :=
		`UPDATE users SET profile_url = $2, profile_id = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return r.getOne(ctx, query, id, profileURL, profileID)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET is_email_verified = TRUE, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetActivated(ctx context.Context, id string, active bool) (*models.User, error) {
	query :=
		`UPDATE users SET is_activated = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return r.getOne(ctx, query, id, active)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u          models.User
		mobile     sql.NullInt64
		referredBy sql.NullString
	)

	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.UserName, &u.ProfileURL, &u.ProfileID,
		&mobile, &u.PasswordHash, &u.SecretKey, &u.ReferralCode, &referredBy,
		&u.IsEmailVerified, &u.IsActivated, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.MobileNumber = mobile.Int64
	if referredBy.Valid {
		u.ReferredBy = &referredBy.String
	}
	return &u, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if constraint, ok := dbx.UniqueViolation(err); ok {
		field, known := constraintFields[constraint]
		if !known {
			field = constraint
		}
		return common.Conflict(field, err)
	}
	return fmt.Errorf("db error: %w", err)
}
