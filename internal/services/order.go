package service

import (
	"context"
	"time"

	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	repository "github.com/minimart/minimart/internal/repositories"
	"github.com/minimart/minimart/internal/storage"
)

// OrderService converts carts into immutable orders. Checkout synthesizes
// a paid order; there is no payment step.
type OrderService struct {
	store *storage.Store
}

func NewOrderService(store *storage.Store) *OrderService {
	return &OrderService{store: store}
}

// Checkout snapshots the user's cart into a new order and empties the
// cart, both inside one transaction. Line items whose product has been
// deleted since they were added are dropped without error; their quantity
// is lost. Pricing always uses the current catalog price, not whatever the
// product cost when it entered the cart.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*models.Order, error) {

	var (
		order models.Order
		empty bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		carts, err := repository.Carts(tx)
		if err != nil {
			return err
		}

		cart := carts[userID]
		if len(cart.Items) == 0 {
			empty = true

			return nil
		}

		products, err := repository.Products(tx)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(cart.Items))

		var total float64

		for _, cartItem := range cart.Items {
			product, ok := products[cartItem.ProductID]
			if !ok {
				continue
			}

			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  cartItem.Quantity,
			})
			total += product.Price * float64(cartItem.Quantity)
		}

		// A cart of nothing but dangling references checks out to nothing.
		if len(items) == 0 {
			empty = true

			return nil
		}

		orders, err := repository.Orders(tx)
		if err != nil {
			return err
		}

		id, err := repository.NextOrderID(tx, maxOrderID(orders))
		if err != nil {
			return err
		}

		order = models.Order{
			ID:        id,
			Items:     items,
			Total:     total,
			CreatedAt: time.Now().UTC(),
			Paid:      true,
		}

		orders[id] = order

		if err := repository.SaveOrders(tx, orders); err != nil {
			return err
		}

		carts[userID] = models.Cart{Items: []models.CartItem{}}

		return repository.SaveCarts(tx, carts)
	})
	if err != nil {
		return nil, errors.StorageError("Failed to check out").WithError(err)
	}

	if empty {
		return nil, errors.EmptyCartError("Cart is empty")
	}

	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {

	var (
		order models.Order
		found bool
	)

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		orders, err := repository.Orders(tx)
		if err != nil {
			return err
		}

		order, found = orders[id]

		return nil
	})
	if err != nil {
		return nil, errors.StorageError("Failed to fetch order").WithError(err)
	}

	if !found {
		return nil, errors.NotFoundError("Order not found")
	}

	return &order, nil
}

func maxOrderID(orders map[uint64]models.Order) uint64 {
	var maxID uint64
	for id := range orders {
		if id > maxID {
			maxID = id
		}
	}

	return maxID
}
