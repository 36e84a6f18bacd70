package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/quizgate/internal/domain"
)

const uniqueViolation = "23505"

var (
	// ErrUserNotFound is returned when no credential record matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the normalized email already exists.
	ErrEmailTaken = errors.New("email already registered")

	errNoPool = errors.New("postgres not configured")
)

// UserRepository defines persistence access for credential records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	FindByNormalizedEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id::text, name, email, email_normalized, password_hash, role, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, email_normalized, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id::text, created_at, updated_at`

	if r.pool == nil {
		return errNoPool
	}
	user.EmailNormalized = domain.NormalizeEmail(user.Email)
	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.EmailNormalized,
		user.PasswordHash,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if r.pool == nil {
		return nil, errNoPool
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id::text=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) FindByNormalizedEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.pool == nil {
		return nil, errNoPool
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email_normalized=$1`
	return scanUser(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.EmailNormalized,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}
