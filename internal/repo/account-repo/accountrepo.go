package accountrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/internal/pg"
)

const (
	upsertQuery = `
		INSERT INTO accounts (id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		RETURNING id, username, first_name, balance, created_at
	`
	findByIDQuery = `
		SELECT id, username, first_name, balance, created_at
		FROM accounts
		WHERE id = $1
	`
	findByUsernameQuery = `
		SELECT id, username, first_name, balance, created_at
		FROM accounts
		WHERE lower(username) = lower($1)
		ORDER BY id
		LIMIT 1
	`
	lockBalanceQuery       = `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`
	lockBalanceSharedQuery = `SELECT balance FROM accounts WHERE id = $1 FOR SHARE`
	updateBalanceQuery     = `UPDATE accounts SET balance = $1 WHERE id = $2`
	listIDsQuery           = `
		SELECT id
		FROM accounts
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Upsert creates the account on first contact and refreshes its display metadata afterwards.
// The balance is never touched here.
func (r *Repository) Upsert(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	var saved domain.Account
	err := r.db.QueryRow(ctx, upsertQuery, account.ID, account.Username, account.FirstName).
		Scan(&saved.ID, &saved.Username, &saved.FirstName, &saved.Balance, &saved.CreatedAt)
	if err != nil {
		zap.L().Error("can't upsert account", zap.Int64("account_id", account.ID), zap.Error(err))
		return nil, err
	}
	return &saved, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, findByIDQuery, id)
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, findByUsernameQuery, username)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&account.ID, &account.Username, &account.FirstName, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find account", zap.Error(err))
		return nil, err
	}
	return &account, nil
}

// LockBalance takes the per-account exclusive row lock and returns the balance it guards.
// It must run inside a transaction; the lock is held until that transaction ends.
func (r *Repository) LockBalance(ctx context.Context, id int64) (int64, error) {
	return r.lock(ctx, lockBalanceQuery, id)
}

// LockBalanceShared blocks writers of the account without blocking other readers.
func (r *Repository) LockBalanceShared(ctx context.Context, id int64) (int64, error) {
	return r.lock(ctx, lockBalanceSharedQuery, id)
}

func (r *Repository) lock(ctx context.Context, query string, id int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, query, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		zap.L().Error("can't lock account balance", zap.Int64("account_id", id), zap.Error(err))
		return 0, err
	}
	return balance, nil
}

func (r *Repository) UpdateBalance(ctx context.Context, id int64, balance int64) error {
	tag, err := r.db.Exec(ctx, updateBalanceQuery, balance, id)
	if err != nil {
		zap.L().Error("can't update account balance", zap.Int64("account_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() != 1 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListIDs pages through account ids in ascending order, starting after afterID.
func (r *Repository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx, listIDsQuery, afterID, limit)
	if err != nil {
		zap.L().Error("can't list account ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan account id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
