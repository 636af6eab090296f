package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapsePath(t *testing.T) {
	assert.Equal(t, "/api/v1/products/{id}", collapsePath("/api/v1/products/42"))
	assert.Equal(t, "/api/v1/cart/items/{id}/increase", collapsePath("/api/v1/cart/items/7/increase"))
	assert.Equal(t, "/api/v1/products", collapsePath("/api/v1/products"))
	assert.Equal(t, "/api/v1/products/search", collapsePath("/api/v1/products/search"))
	assert.Equal(t, "/", collapsePath("/"))
}
