package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-ledger/config"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(&config.PostgresConfig{
		Host: "db", Port: "5433", User: "u", Password: "p", DBName: "stock", SSLMode: "require",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=stock sslmode=require", dsn)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: ProductNameIndex}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup), ProductNameIndex))
	assert.False(t, IsUniqueViolation(dup, CustomerEmailIndex))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestMigrate(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	defer db.Close()

	t.Run("applies every statement in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		for _, stmt := range schema {
			mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		require.NoError(t, Migrate(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(schema[0])).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		assert.Error(t, Migrate(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
