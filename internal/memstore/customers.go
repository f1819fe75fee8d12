package memstore

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

type CustomerRepository struct {
	s *Store
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	if _, ok := r.s.customers[c.ID]; ok {
		return apperror.New(apperror.StorageError, "customer id %s already stored", c.ID)
	}
	if r.emailTakenLocked(c.Email, "") {
		return apperror.New(apperror.DuplicateEmail, "customer email %q already exists", c.Email)
	}
	r.s.customers[c.ID] = *c
	r.s.customerOrder = append(r.s.customerOrder, c.ID)
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]model.Customer, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()

	customers := make([]model.Customer, 0, len(r.s.customers))
	for _, id := range r.s.customerOrder {
		if c, ok := r.s.customers[id]; ok {
			customers = append(customers, c)
		}
	}
	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	if _, ok := r.s.customers[c.ID]; !ok {
		return apperror.New(apperror.NotFound, "customer %s not found", c.ID)
	}
	if r.emailTakenLocked(c.Email, c.ID) {
		return apperror.New(apperror.DuplicateEmail, "customer email %q already exists", c.Email)
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return apperror.New(apperror.NotFound, "customer %s not found", id)
	}
	delete(r.s.customers, id)
	for i, cid := range r.s.customerOrder {
		if cid == id {
			r.s.customerOrder = append(r.s.customerOrder[:i], r.s.customerOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *CustomerRepository) IsEmailUnique(ctx context.Context, email, excludeID string) (bool, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()
	return !r.emailTakenLocked(email, excludeID), nil
}

func (r *CustomerRepository) emailTakenLocked(email, excludeID string) bool {
	for id, c := range r.s.customers {
		if id != excludeID && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}
