package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/database"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, name, email, phone, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Customer) error {
	query := `
        INSERT INTO customers (` + customerColumns + `)
        VALUES (:id, :name, :email, :phone, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	if database.IsUniqueViolation(err, database.CustomerEmailIndex) {
		return apperror.New(apperror.DuplicateEmail, "customer email %q already exists", c.Email)
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := r.DB.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Customer, error) {
	customers := []model.Customer{}
	err := r.DB.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customers ORDER BY created_at, id`)
	return customers, err
}

func (r *PGRepository) Update(ctx context.Context, c *model.Customer) error {
	query := `
        UPDATE customers
        SET name = :name, email = :email, phone = :phone, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		if database.IsUniqueViolation(err, database.CustomerEmailIndex) {
			return apperror.New(apperror.DuplicateEmail, "customer email %q already exists", c.Email)
		}
		return err
	}
	return requireRow(res, c.ID)
}

// Delete removes the customer row. Ledger entries keep the customer id.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *PGRepository) IsEmailUnique(ctx context.Context, email, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM customers WHERE lower(email) = lower($1)`
	args := []interface{}{email}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func requireRow(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.New(apperror.NotFound, "customer %s not found", id)
	}
	return nil
}
