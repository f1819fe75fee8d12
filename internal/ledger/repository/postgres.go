package repository

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/jmoiron/sqlx"
)

const transactionColumns = `seq, id, product_id, customer_id, quantity, type, created_at`

// InsertQuery appends one ledger row and returns its sequence number. It is shared
// with the stock repository, which runs it inside its own transaction.
const InsertQuery = `
    INSERT INTO transactions (id, product_id, customer_id, quantity, type, created_at)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING seq
`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Append(ctx context.Context, txn *model.Transaction) error {
	return Insert(ctx, r.DB, txn)
}

// Insert runs InsertQuery on q and stores the assigned seq on txn.
func Insert(ctx context.Context, q sqlx.QueryerContext, txn *model.Transaction) error {
	return q.QueryRowxContext(ctx, InsertQuery,
		txn.ID, txn.ProductID, txn.CustomerID, txn.Quantity, txn.Type, txn.Timestamp,
	).Scan(&txn.Seq)
}

func (r *PGRepository) Iter(ctx context.Context, f dto.Filter) iter.Seq2[model.Transaction, error] {
	query, args := buildQuery(f)
	return func(yield func(model.Transaction, error) bool) {
		rows, err := r.DB.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(model.Transaction{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var t model.Transaction
			if err := rows.StructScan(&t); err != nil {
				yield(model.Transaction{}, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Transaction{}, err)
		}
	}
}

func buildQuery(f dto.Filter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if f.Reverse {
		query += " ORDER BY seq DESC"
	} else {
		query += " ORDER BY seq ASC"
	}
	return query, args
}
