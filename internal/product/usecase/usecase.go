package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo   product.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewProductUseCase(repo product.Repository, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.New(apperror.InvalidValue, "product name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, apperror.New(apperror.InvalidValue, "quantity cannot be negative")
	}

	unique, err := uc.repo.IsNameUnique(ctx, name, "")
	if err != nil {
		return nil, apperror.Storage(err, "failed to check product name")
	}
	if !unique {
		return nil, apperror.New(apperror.DuplicateName, "product name %q already exists", name)
	}

	now := uc.now().UTC()
	p := &model.Product{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:            name,
		Description:     input.Description,
		Category:        strings.TrimSpace(input.Category),
		Price:           input.Price,
		Quantity:        input.Quantity,
		InitialQuantity: input.Quantity,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		if apperror.Is(err, apperror.StorageError) {
			uc.logger.Error("failed to create product", zap.String("name", name), zap.Error(err))
		}
		return nil, apperror.Storage(err, "failed to create product")
	}

	uc.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name), zap.Int64("quantity", p.Quantity))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage(err, "failed to load product")
	}
	if p == nil {
		return nil, apperror.New(apperror.NotFound, "product not found")
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}
	products, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, apperror.Storage(err, "failed to list products")
	}
	return products, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.New(apperror.InvalidValue, "product name is required")
		}
		if name != p.Name {
			unique, err := uc.repo.IsNameUnique(ctx, name, p.ID)
			if err != nil {
				return nil, apperror.Storage(err, "failed to check product name")
			}
			if !unique {
				return nil, apperror.New(apperror.DuplicateName, "product name %q already exists", name)
			}
		}
		p.Name = name
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		p.Price = *input.Price
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}

	p.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, apperror.Storage(err, "failed to update product")
	}

	// Quantity is whatever the store holds; re-read so a concurrent stock movement
	// is reflected rather than the value loaded above.
	return uc.GetProduct(ctx, p.ID)
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	at := uc.now().UTC()
	if err := uc.repo.SoftDelete(ctx, id, at); err != nil {
		return nil, apperror.Storage(err, "failed to delete product")
	}
	p.DeletedAt = &at
	p.UpdatedAt = at

	uc.logger.Info("product deleted", zap.String("product_id", id))
	return p, nil
}

// Prices are stored as NUMERIC(14, 2).
var maxPrice = decimal.New(1, 12)

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.New(apperror.InvalidValue, "price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return apperror.New(apperror.InvalidValue, "price %s has more than 2 decimal places", price)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return apperror.New(apperror.InvalidValue, "price %s is too large", price)
	}
	return nil
}
