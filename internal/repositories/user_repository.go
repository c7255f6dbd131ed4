package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

const pqUniqueViolation = "23505"

const userColumns = `id, email, username, password_hash, is_verified, verification_token,
    verification_expires_at, reset_token, is_online, last_seen, created_at`

// UserRepository abstracts account persistence.
type UserRepository interface {
	Create(ctx context.Context, email, username, passwordHash, verificationToken string, verificationExpiresAt time.Time) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (models.User, error)
	GetByResetToken(ctx context.Context, token string) (models.User, error)
	MarkVerified(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, token string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Search(ctx context.Context, query string, excludeID int64) ([]models.UserSummary, error)
	SetOnline(ctx context.Context, id int64, online bool) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new unverified account.
func (r *UserRepo) Create(ctx context.Context, email, username, passwordHash, verificationToken string, verificationExpiresAt time.Time) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `INSERT INTO users (email, username, password_hash, verification_token, verification_expires_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		email, username, passwordHash, verificationToken, verificationExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			if pqErr.Constraint == "users_username_key" {
				return models.User{}, ErrUsernameTaken
			}
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

// GetByVerificationToken fetches a user holding an unexpired verification token.
func (r *UserRepo) GetByVerificationToken(ctx context.Context, token string) (models.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users
        WHERE verification_token=$1 AND (verification_expires_at IS NULL OR verification_expires_at > NOW())`, token)
}

// GetByResetToken fetches a user by password reset token.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (models.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token=$1`, token)
}

func (r *UserRepo) getBy(ctx context.Context, query string, arg any) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// MarkVerified flips the verification flag and clears the token.
func (r *UserRepo) MarkVerified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE, verification_token = NULL,
        verification_expires_at = NULL WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetResetToken stores a password reset token for the user.
func (r *UserRepo) SetResetToken(ctx context.Context, id int64, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET reset_token=$2 WHERE id=$1`, id, token)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, reset_token=NULL WHERE id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Search finds users by username or email substring, excluding the caller.
func (r *UserRepo) Search(ctx context.Context, query string, excludeID int64) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, is_online FROM users
        WHERE id <> $1 AND (username ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
        ORDER BY username LIMIT 50`, excludeID, query)
	return users, err
}

// SetOnline updates the persisted presence flag; going offline also
// stamps last_seen.
func (r *UserRepo) SetOnline(ctx context.Context, id int64, online bool) error {
	var err error
	if online {
		_, err = r.db.ExecContext(ctx, `UPDATE users SET is_online = TRUE WHERE id=$1`, id)
	} else {
		_, err = r.db.ExecContext(ctx, `UPDATE users SET is_online = FALSE, last_seen = NOW() WHERE id=$1`, id)
	}
	return err
}

func requireRow(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
