// Package repository provides typed access to the persisted collections
// over a storage transaction. Decoding is deliberately lenient: the file
// may have been written by an older schema, so records are projected
// field-by-field with documented defaults, and a collection whose document
// is not even the right container shape is reset to its empty default
// rather than failing the operation. Damage is contained to the smallest
// decodable unit - a single record where possible, one collection at worst,
// never the whole database.
package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// decodeDocument parses a collection document into its raw entries.
// ok=false means the document itself is unusable (not a JSON object).
func decodeDocument(raw []byte) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}

	return doc, true
}

// resetCollection persists the empty default for a collection whose stored
// document could not be decoded. The reset happens inside the caller's
// transaction, so the repaired state is durable by the time the operation
// returns.
func resetCollection(tx *storage.Tx, name string, def string) error {
	return tx.Put(name, []byte(def))
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return ""
}

func asFloat(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}

	return 0
}

func asInt(v any) int64 {
	if f, ok := v.(float64); ok {
		return int64(f)
	}

	return 0
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}

	return false
}

// projectProduct converts one stored record into canonical shape. Records
// written by an older schema may lack fields: a missing quantity becomes 0,
// missing strings become empty. The id comes from the record itself, or
// from the map key when the record predates an embedded id. Records that
// are not objects, or that carry no usable id at all, are skipped.
func projectProduct(key string, v any) (models.Product, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Product{}, false
	}

	p := models.Product{
		Name:        asString(obj["name"]),
		Price:       asFloat(obj["price"]),
		Description: asString(obj["description"]),
		Quantity:    asInt(obj["quantity"]),
	}

	if id := asInt(obj["id"]); id > 0 {
		p.ID = uint64(id)

		return p, true
	}

	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		p.ID = id

		return p, true
	}

	return models.Product{}, false
}

func projectCartItem(v any) (models.CartItem, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.CartItem{}, false
	}

	id := asInt(obj["product_id"])
	if id <= 0 {
		return models.CartItem{}, false
	}

	return models.CartItem{
		ProductID: uint64(id),
		Quantity:  asInt(obj["quantity"]),
	}, true
}

// projectCart never fails: an unusable cart record decodes to the empty
// cart, which is also what an absent cart means.
func projectCart(v any) models.Cart {
	cart := models.Cart{Items: []models.CartItem{}}

	obj, ok := v.(map[string]any)
	if !ok {
		return cart
	}

	rawItems, ok := obj["items"].([]any)
	if !ok {
		return cart
	}

	for _, rawItem := range rawItems {
		if item, ok := projectCartItem(rawItem); ok {
			cart.Items = append(cart.Items, item)
		}
	}

	return cart
}

func projectUser(v any) (models.User, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.User{}, false
	}

	u := models.User{
		Username: asString(obj["username"]),
		Password: asString(obj["password"]),
		Role:     asString(obj["role"]),
	}

	if u.Username == "" {
		return models.User{}, false
	}

	return u, true
}

func projectSession(key string, v any) (models.Session, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Session{}, false
	}

	s := models.Session{
		Token:    asString(obj["token"]),
		Username: asString(obj["username"]),
		Role:     asString(obj["role"]),
	}

	if s.Token == "" {
		s.Token = key
	}

	if s.Token == "" || s.Username == "" {
		return models.Session{}, false
	}

	return s, true
}

func projectOrderItem(v any) (models.OrderItem, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.OrderItem{}, false
	}

	id := asInt(obj["product_id"])
	if id <= 0 {
		return models.OrderItem{}, false
	}

	return models.OrderItem{
		ProductID: uint64(id),
		Name:      asString(obj["name"]),
		Price:     asFloat(obj["price"]),
		Quantity:  asInt(obj["quantity"]),
	}, true
}

func projectOrder(key string, v any) (models.Order, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return models.Order{}, false
	}

	o := models.Order{
		Items: []models.OrderItem{},
		Total: asFloat(obj["total"]),
		Paid:  asBool(obj["paid"]),
	}

	if ts, err := time.Parse(time.RFC3339Nano, asString(obj["created_at"])); err == nil {
		o.CreatedAt = ts
	}

	if rawItems, ok := obj["items"].([]any); ok {
		for _, rawItem := range rawItems {
			if item, ok := projectOrderItem(rawItem); ok {
				o.Items = append(o.Items, item)
			}
		}
	}

	if id := asInt(obj["id"]); id > 0 {
		o.ID = uint64(id)

		return o, true
	}

	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		o.ID = id

		return o, true
	}

	return models.Order{}, false
}
