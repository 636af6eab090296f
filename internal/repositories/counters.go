package repository

import (
	"encoding/json"
	"strconv"

	"github.com/minimart/minimart/internal/storage"
)

// nextID allocates the next value from a monotonic counter. The counter
// strictly exceeds every id ever issued; ids are never reassigned, even
// after the record they named is deleted. floor is the highest id present
// in the collection the counter feeds: a missing or corrupted counter
// restarts just above it instead of reissuing a live id.
func nextID(tx *storage.Tx, name string, floor uint64) (uint64, error) {
	raw, ok, err := tx.Get(name)
	if err != nil {
		return 0, err
	}

	var current uint64

	if ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			current = 0
		}
	}

	if current <= floor {
		current = floor + 1
	}

	next := []byte(strconv.FormatUint(current+1, 10))
	if err := tx.Put(name, next); err != nil {
		return 0, err
	}

	return current, nil
}

// NextProductID allocates a product id. maxExisting is the highest id in
// the catalog as loaded in the same transaction.
func NextProductID(tx *storage.Tx, maxExisting uint64) (uint64, error) {
	return nextID(tx, storage.CollectionNextProductID, maxExisting)
}

// NextOrderID allocates an order id. maxExisting is the highest id in the
// order log as loaded in the same transaction.
func NextOrderID(tx *storage.Tx, maxExisting uint64) (uint64, error) {
	return nextID(tx, storage.CollectionNextOrderID, maxExisting)
}
