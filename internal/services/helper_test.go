package service_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimart/minimart/internal/config"
	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	cfg := &config.Config{Storage: config.Storage{Path: filepath.Join(t.TempDir(), "minimart.db")}}

	store, err := storage.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	return store
}

func addTestProduct(t *testing.T, catalog *service.CatalogService, name string, price float64) *models.Product {
	t.Helper()

	product, err := catalog.AddProduct(t.Context(), &models.CreateProductRequest{
		Name:        name,
		Price:       price,
		Description: name + " description",
		Quantity:    10,
	})
	require.NoError(t, err)

	return product
}
