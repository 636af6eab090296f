package service

import (
	"context"

	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	repository "github.com/minimart/minimart/internal/repositories"
	"github.com/minimart/minimart/internal/storage"
)

// CartService manages per-user line items. Carts materialize lazily: a
// read for an unknown user returns the empty cart without persisting
// anything; only mutations write.
type CartService struct {
	store *storage.Store
}

func NewCartService(store *storage.Store) *CartService {
	return &CartService{store: store}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {

	cart := models.Cart{Items: []models.CartItem{}}

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		carts, err := repository.Carts(tx)
		if err != nil {
			return err
		}

		if stored, ok := carts[userID]; ok {
			cart = stored
		}

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to fetch cart").WithError(err)
	}

	return &cart, nil
}

// AddItem merges quantity into an existing line for the product or appends
// a new one. Fails with NotFound, mutating nothing, when the product is
// not in the catalog.
func (s *CartService) AddItem(ctx context.Context, userID string, productID uint64, quantity int64) error {

	var productMissing bool

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		if _, ok := products[productID]; !ok {
			productMissing = true

			return nil
		}

		carts, err := repository.Carts(tx)
		if err != nil {
			return err
		}

		cart := carts[userID]

		merged := false
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity += quantity
				merged = true

				break
			}
		}

		if !merged {
			cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
		}

		carts[userID] = cart

		return repository.SaveCarts(tx, carts)
	})
	if err != nil {
		return errors.StorageError("Failed to update cart").WithError(err)
	}

	if productMissing {
		return errors.NotFoundError("Product not found")
	}

	return nil
}

// RemoveItem is idempotent: removing an absent item still succeeds.
func (s *CartService) RemoveItem(ctx context.Context, userID string, productID uint64) error {

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		carts, err := repository.Carts(tx)
		if err != nil {
			return err
		}

		cart := carts[userID]

		items := cart.Items[:0]
		for _, item := range cart.Items {
			if item.ProductID != productID {
				items = append(items, item)
			}
		}
		cart.Items = items

		carts[userID] = cart

		return repository.SaveCarts(tx, carts)
	})
	if err != nil {
		return errors.StorageError("Failed to update cart").WithError(err)
	}

	return nil
}

func (s *CartService) IncreaseQuantity(ctx context.Context, userID string, productID uint64) error {
	return s.adjustQuantity(ctx, userID, productID, +1)
}

// DecreaseQuantity removes the line entirely when its quantity would hit
// zero; a quantity of zero or less is never persisted.
func (s *CartService) DecreaseQuantity(ctx context.Context, userID string, productID uint64) error {
	return s.adjustQuantity(ctx, userID, productID, -1)
}

func (s *CartService) adjustQuantity(ctx context.Context, userID string, productID uint64, delta int64) error {

	var missing bool

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		if _, ok := products[productID]; !ok {
			missing = true

			return nil
		}

		carts, err := repository.Carts(tx)
		if err != nil {
			return err
		}

		cart := carts[userID]

		for i := range cart.Items {
			if cart.Items[i].ProductID != productID {
				continue
			}

			cart.Items[i].Quantity += delta

			if cart.Items[i].Quantity <= 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			}

			carts[userID] = cart

			return repository.SaveCarts(tx, carts)
		}

		missing = true

		return nil
	})
	if err != nil {
		return errors.StorageError("Failed to update cart").WithError(err)
	}

	if missing {
		return errors.NotFoundError("Product not found in cart")
	}

	return nil
}
