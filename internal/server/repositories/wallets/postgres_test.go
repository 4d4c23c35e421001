package wallets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now().UTC()
	q := `(?s)^INSERT\s+INTO\s+wallets\s*\(user_id,\s*wallet_key,\s*points,\s*balance\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	mock.ExpectQuery(q).
		WithArgs("u-1", "wk-1", int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("w-1", ts, ts))

	got, err := repo.Create(context.Background(), &models.Wallet{UserID: "u-1", WalletKey: "wk-1"})
	require.NoError(t, err)
	assert.Equal(t, "w-1", got.ID)
	assert.Equal(t, "u-1", got.UserID)
}

func TestCreate_DuplicateUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+wallets`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "wallets_user_id_key"})

	_, err := repo.Create(context.Background(), &models.Wallet{UserID: "u-1", WalletKey: "wk-1"})
	field, ok := common.ConflictField(err)
	require.True(t, ok)
	assert.Equal(t, "user_id", field)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+wallets`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Wallet{UserID: "u-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestGetByUserID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now().UTC()
	q := `(?s)^SELECT\s+id,\s*user_id,\s*wallet_key,\s*points,\s*balance,\s*created_at,\s*updated_at\s+FROM\s+wallets\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	rows := sqlmock.NewRows([]string{"id", "user_id", "wallet_key", "points", "balance", "created_at", "updated_at"}).
		AddRow("w-1", "u-1", "wk-1", int64(5), int64(100), ts, ts)
	mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.GetByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Points)
	assert.Equal(t, int64(100), got.Balance)

	mock.ExpectQuery(q).WithArgs("u-2").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByUserID(context.Background(), "u-2")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
