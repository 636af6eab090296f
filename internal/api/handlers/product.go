package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/minimart/minimart/internal/api/middleware"
	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/utils"
	"github.com/minimart/minimart/internal/utils/response"
)

type ProductHandler struct {
	catalog   *service.CatalogService
	validator *validator.Validate
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog, validator: validator.New()}
}

func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.catalog.AddProduct(r.Context(), &req)
		if err != nil {
			logger.Error("Product creation failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Product created", slog.Uint64("productId", product.ID))
		response.WriteJson(w, http.StatusCreated, product)
	}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, ok := productID(w, r)
		if !ok {
			return
		}

		product, err := h.catalog.GetProduct(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		products, err := h.catalog.ListProducts(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to fetch products", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, products)
	}
}

// for eg: GET /products/search?query=phone
func (h *ProductHandler) SearchProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		query := r.URL.Query().Get("query")

		products, err := h.catalog.SearchProducts(r.Context(), query)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, products)
	}
}

func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, ok := productID(w, r)
		if !ok {
			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.catalog.UpdateProduct(r.Context(), id, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		logger.Info("Product updated", slog.Uint64("productId", product.ID))
		response.WriteJson(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) DeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, ok := productID(w, r)
		if !ok {
			return
		}

		deleted, err := h.catalog.DeleteProduct(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		if !deleted {
			response.Error(w, errors.NotFoundError("Product not found"))

			return
		}

		logger.Info("Product deleted", slog.Uint64("productId", id))
		response.WriteJson(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
	}
}

func productID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product id")

		return 0, false
	}

	return id, true
}
