package repository

import (
	"encoding/json"
	"fmt"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// Carts loads every stored cart keyed by user id. A user without an entry
// has the empty cart; callers materialize it lazily and only persist after
// the first mutation.
func Carts(tx *storage.Tx) (map[string]models.Cart, error) {
	raw, ok, err := tx.Get(storage.CollectionCarts)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.Cart)

	doc, valid := decodeDocument(raw)
	if !ok || !valid {
		if err := resetCollection(tx, storage.CollectionCarts, "{}"); err != nil {
			return nil, err
		}

		return out, nil
	}

	for userID, rawRec := range doc {
		var v any
		if err := json.Unmarshal(rawRec, &v); err != nil {
			out[userID] = models.Cart{Items: []models.CartItem{}}

			continue
		}

		out[userID] = projectCart(v)
	}

	return out, nil
}

func SaveCarts(tx *storage.Tx, carts map[string]models.Cart) error {
	raw, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("encoding carts: %w", err)
	}

	return tx.Put(storage.CollectionCarts, raw)
}
