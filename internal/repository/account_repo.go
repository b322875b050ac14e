package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agri-auth/internal/model"
)

// dbPool is the subset of *pgxpool.Pool the repository needs; pgxmock satisfies it too.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AccountRepository struct {
	pool dbPool
}

func NewAccountRepository(pool dbPool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a. The unique index on email is the only duplicate check.
func (r *AccountRepository) Create(ctx context.Context, a model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account: %w", model.ErrDuplicateAccount)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at
		 FROM accounts WHERE email = $1`, email)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by email: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at
		 FROM accounts WHERE id = $1`, id)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a    model.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.CreatedAt); err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
