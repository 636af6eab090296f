package service

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	repository "github.com/minimart/minimart/internal/repositories"
	"github.com/minimart/minimart/internal/storage"
)

// CatalogService owns product CRUD and search. It holds no state between
// calls; every operation is one storage transaction.
type CatalogService struct {
	store    *storage.Store
	sanitize *bluemonday.Policy
}

func NewCatalogService(store *storage.Store) *CatalogService {
	return &CatalogService{
		store:    store,
		sanitize: bluemonday.StrictPolicy(),
	}
}

func (s *CatalogService) AddProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	var product models.Product

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		id, err := repository.NextProductID(tx, maxProductID(products))
		if err != nil {
			return err
		}

		product = models.Product{
			ID:          id,
			Name:        s.sanitize.Sanitize(req.Name),
			Price:       req.Price,
			Description: s.sanitize.Sanitize(req.Description),
			Quantity:    req.Quantity,
		}

		products[id] = product

		return repository.SaveProducts(tx, products)
	})
	if err != nil {
		return nil, errors.StorageError("Failed to create product").WithError(err)
	}

	return &product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*models.Product, error) {

	var (
		product models.Product
		found   bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		product, found = products[id]

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to fetch product").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Product not found")
	}

	return &product, nil
}

// ListProducts returns the catalog in collection iteration order; callers
// must not depend on the ordering.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {

	var out []models.Product

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		out = make([]models.Product, 0, len(products))
		for _, p := range products {
			out = append(out, p)
		}

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to fetch products").WithError(err)
	}

	return out, nil
}

// UpdateProduct merges only the non-nil fields of req into the stored
// record.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint64, req *models.UpdateProductRequest) (*models.Product, error) {

	var (
		product models.Product
		found   bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		product, found = products[id]
		if !found {
			return nil
		}

		if req.Name != nil {
			product.Name = s.sanitize.Sanitize(*req.Name)
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.Description != nil {
			product.Description = s.sanitize.Sanitize(*req.Description)
		}
		if req.Quantity != nil {
			product.Quantity = *req.Quantity
		}

		products[id] = product

		return repository.SaveProducts(tx, products)
	})
	if err != nil {
		return nil, errors.StorageError("Failed to update product").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Product not found")
	}

	return &product, nil
}

// DeleteProduct reports whether a record existed. Carts referencing the
// deleted product are left alone; the dangling reference is resolved as
// "product unavailable" at read and checkout time.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint64) (bool, error) {

	var existed bool

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		if _, existed = products[id]; !existed {
			return nil
		}

		delete(products, id)

		return repository.SaveProducts(tx, products)
	})
	if err != nil {
		return false, errors.StorageError("Failed to delete product").WithError(err)
	}

	return existed, nil
}

// SearchProducts matches the query case-insensitively against name or
// description. The empty query matches everything.
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {

	q := strings.ToLower(query)

	var out []models.Product

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		out = make([]models.Product, 0, len(products))
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
				out = append(out, p)
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to search products").WithError(err)
	}

	return out, nil
}

func maxProductID(products map[uint64]models.Product) uint64 {
	var maxID uint64
	for id := range products {
		if id > maxID {
			maxID = id
		}
	}

	return maxID
}
