package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// Products loads the product catalog keyed by id. A corrupted document is
// replaced with the empty catalog before returning it.
func Products(tx *storage.Tx) (map[uint64]models.Product, error) {
	raw, ok, err := tx.Get(storage.CollectionProducts)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]models.Product)

	doc, valid := decodeDocument(raw)
	if !ok || !valid {
		if err := resetCollection(tx, storage.CollectionProducts, "{}"); err != nil {
			return nil, err
		}

		return out, nil
	}

	for key, rawRec := range doc {
		var v any
		if err := json.Unmarshal(rawRec, &v); err != nil {
			continue
		}

		if p, ok := projectProduct(key, v); ok {
			out[p.ID] = p
		}
	}

	return out, nil
}

func SaveProducts(tx *storage.Tx, products map[uint64]models.Product) error {
	doc := make(map[string]models.Product, len(products))
	for id, p := range products {
		doc[strconv.FormatUint(id, 10)] = p
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}

	return tx.Put(storage.CollectionProducts, raw)
}
