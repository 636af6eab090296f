package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// Orders loads the append-only order log keyed by order id. Orders are
// immutable once written; the only mutation this repository supports is
// appending through SaveOrders.
func Orders(tx *storage.Tx) (map[uint64]models.Order, error) {
	raw, ok, err := tx.Get(storage.CollectionOrders)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]models.Order)

	doc, valid := decodeDocument(raw)
	if !ok || !valid {
		if err := resetCollection(tx, storage.CollectionOrders, "{}"); err != nil {
			return nil, err
		}

		return out, nil
	}

	for key, rawRec := range doc {
		var v any
		if err := json.Unmarshal(rawRec, &v); err != nil {
			continue
		}

		if o, ok := projectOrder(key, v); ok {
			out[o.ID] = o
		}
	}

	return out, nil
}

func SaveOrders(tx *storage.Tx, orders map[uint64]models.Order) error {
	doc := make(map[string]models.Order, len(orders))
	for id, o := range orders {
		doc[strconv.FormatUint(id, 10)] = o
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding orders: %w", err)
	}

	return tx.Put(storage.CollectionOrders, raw)
}
