package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/minimart/minimart/internal/api/middleware"
	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/utils"
	"github.com/minimart/minimart/internal/utils/response"
)

type CartHandler struct {
	carts     *service.CartService
	validator *validator.Validate
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts, validator: validator.New()}
}

func (h *CartHandler) ViewCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity := middleware.IdentityFromContext(r.Context())

		cart, err := h.carts.GetCart(r.Context(), identity.Username)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		identity := middleware.IdentityFromContext(r.Context())

		var req models.AddCartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		if req.Quantity == 0 {
			req.Quantity = 1
		}

		if err := h.carts.AddItem(r.Context(), identity.Username, req.ProductID, req.Quantity); err != nil {
			response.Error(w, err)

			return
		}

		logger.Info("Cart item added", slog.Uint64("productId", req.ProductID), slog.Int64("quantity", req.Quantity))
		response.WriteJson(w, http.StatusOK, map[string]string{"message": "Product added to cart"})
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity := middleware.IdentityFromContext(r.Context())

		id, ok := cartProductID(w, r)
		if !ok {
			return
		}

		if err := h.carts.RemoveItem(r.Context(), identity.Username, id); err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, map[string]string{"message": "Product removed from cart"})
	}
}

func (h *CartHandler) IncreaseQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity := middleware.IdentityFromContext(r.Context())

		id, ok := cartProductID(w, r)
		if !ok {
			return
		}

		if err := h.carts.IncreaseQuantity(r.Context(), identity.Username, id); err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, map[string]string{"message": "Cart quantity increased"})
	}
}

func (h *CartHandler) DecreaseQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		identity := middleware.IdentityFromContext(r.Context())

		id, ok := cartProductID(w, r)
		if !ok {
			return
		}

		if err := h.carts.DecreaseQuantity(r.Context(), identity.Username, id); err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, map[string]string{"message": "Cart quantity decreased"})
	}
}

func cartProductID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("productID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product id")

		return 0, false
	}

	return id, true
}
