package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/database"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, category, price, quantity, initial_quantity, created_at, updated_at, deleted_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (
            :id, :name, :description, :category, :price, :quantity, :initial_quantity,
            :created_at, :updated_at, :deleted_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	if database.IsUniqueViolation(err, database.ProductNameIndex) {
		return apperror.New(apperror.DuplicateName, "product name %q already exists", p.Name)
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, error) {
	products := []model.Product{}

	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f != nil {
		if f.Category != "" {
			conditions = append(conditions, "category = :category")
			args["category"] = f.Category
		}
		if f.SearchQuery != "" {
			conditions = append(conditions, "name ILIKE :search")
			args["search"] = "%" + f.SearchQuery + "%"
		}
		if f.LowStock {
			conditions = append(conditions, "quantity < :threshold")
			args["threshold"] = model.LowStockThreshold
		}
	}

	query := "SELECT " + productColumns + " FROM products WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY created_at, id"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            category = :category,
            price = :price,
            updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL
    `
	res, err := r.DB.NamedExecContext(ctx, query, p)
	if err != nil {
		if database.IsUniqueViolation(err, database.ProductNameIndex) {
			return apperror.New(apperror.DuplicateName, "product name %q already exists", p.Name)
		}
		return err
	}
	return requireRow(res, p.ID)
}

func (r *PGRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *PGRepository) IsNameUnique(ctx context.Context, name, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE name = $1 AND deleted_at IS NULL`
	args := []interface{}{name}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
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
		return apperror.New(apperror.NotFound, "product %s not found", id)
	}
	return nil
}
