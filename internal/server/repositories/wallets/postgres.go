package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

var constraintFields = map[string]string{
	"wallets_user_id_key":    "user_id",
	"wallets_wallet_key_key": "wallet_key",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	query :=
		`INSERT INTO wallets (user_id, wallet_key, points, balance)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		wallet.UserID, wallet.WalletKey, wallet.Points, wallet.Balance,
	).Scan(&wallet.ID, &wallet.CreatedAt, &wallet.UpdatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return nil, common.Conflict(constraintFields[constraint], err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	query :=
		`SELECT id, user_id, wallet_key, points, balance, created_at, updated_at FROM wallets
		 WHERE user_id = $1
		 `

	w := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&w.ID, &w.UserID, &w.WalletKey, &w.Points, &w.Balance, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}
