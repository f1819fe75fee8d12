package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	if _, ok := r.s.products[p.ID]; ok {
		return apperror.New(apperror.StorageError, "product id %s already stored", p.ID)
	}
	if r.nameTakenLocked(p.Name, "") {
		return apperror.New(apperror.DuplicateName, "product name %q already exists", p.Name)
	}
	r.s.products[p.ID] = *p
	r.s.productOrder = append(r.s.productOrder, p.ID)
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()

	p, ok := r.s.products[id]
	if !ok || p.IsDeleted() {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()

	products := make([]model.Product, 0, len(r.s.productOrder))
	for _, id := range r.s.productOrder {
		p := r.s.products[id]
		if p.IsDeleted() {
			continue
		}
		if f != nil {
			if f.Category != "" && p.Category != f.Category {
				continue
			}
			if f.SearchQuery != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.SearchQuery)) {
				continue
			}
			if f.LowStock && !p.IsLowStock() {
				continue
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	cur, ok := r.s.products[p.ID]
	if !ok || cur.IsDeleted() {
		return apperror.New(apperror.NotFound, "product %s not found", p.ID)
	}
	if r.nameTakenLocked(p.Name, p.ID) {
		return apperror.New(apperror.DuplicateName, "product name %q already exists", p.Name)
	}

	cur.Name = p.Name
	cur.Description = p.Description
	cur.Category = p.Category
	cur.Price = p.Price
	cur.UpdatedAt = p.UpdatedAt
	r.s.products[p.ID] = cur
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	r.s.catalogMu.Lock()
	defer r.s.catalogMu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.IsDeleted() {
		return apperror.New(apperror.NotFound, "product %s not found", id)
	}
	p.DeletedAt = &at
	p.UpdatedAt = at
	r.s.products[id] = p
	return nil
}

func (r *ProductRepository) IsNameUnique(ctx context.Context, name, excludeID string) (bool, error) {
	r.s.catalogMu.RLock()
	defer r.s.catalogMu.RUnlock()
	return !r.nameTakenLocked(name, excludeID), nil
}

func (r *ProductRepository) nameTakenLocked(name, excludeID string) bool {
	for id, p := range r.s.products {
		if id != excludeID && !p.IsDeleted() && p.Name == name {
			return true
		}
	}
	return false
}
