package usecase

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/customer"
	"github.com/fekuna/omnipos-stock-ledger/internal/customer/dto"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type customerUseCase struct {
	repo   customer.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewCustomerUseCase(repo customer.Repository, log logger.ZapLogger) customer.UseCase {
	return &customerUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (uc *customerUseCase) CreateCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.New(apperror.InvalidValue, "customer name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if err := uc.checkEmail(ctx, email, ""); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	c := &model.Customer{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		Email:     email,
		Phone:     optional(input.Phone),
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, apperror.Storage(err, "failed to create customer")
	}
	return c, nil
}

func (uc *customerUseCase) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage(err, "failed to load customer")
	}
	if c == nil {
		return nil, apperror.New(apperror.NotFound, "customer not found")
	}
	return c, nil
}

func (uc *customerUseCase) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	customers, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Storage(err, "failed to list customers")
	}
	return customers, nil
}

func (uc *customerUseCase) UpdateCustomer(ctx context.Context, input *dto.UpdateCustomerInput) (*model.Customer, error) {
	c, err := uc.GetCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.New(apperror.InvalidValue, "customer name is required")
		}
		c.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(email, c.Email) {
			if err := uc.checkEmail(ctx, email, c.ID); err != nil {
				return nil, err
			}
		}
		c.Email = email
	}
	if input.Phone != nil {
		c.Phone = optional(*input.Phone)
	}

	c.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, apperror.Storage(err, "failed to update customer")
	}
	return c, nil
}

func (uc *customerUseCase) DeleteCustomer(ctx context.Context, id string) (*model.Customer, error) {
	c, err := uc.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return nil, apperror.Storage(err, "failed to delete customer")
	}
	uc.logger.Info("customer deleted", zap.String("customer_id", id))
	return c, nil
}

func (uc *customerUseCase) checkEmail(ctx context.Context, email, excludeID string) error {
	unique, err := uc.repo.IsEmailUnique(ctx, email, excludeID)
	if err != nil {
		return apperror.Storage(err, "failed to check customer email")
	}
	if !unique {
		return apperror.New(apperror.DuplicateEmail, "customer email %q already exists", email)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", apperror.New(apperror.InvalidValue, "customer email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.New(apperror.InvalidValue, "customer email %q is not valid", email)
	}
	return email, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
