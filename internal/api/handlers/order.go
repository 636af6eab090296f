package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/minimart/minimart/internal/api/middleware"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/utils/response"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		identity := middleware.IdentityFromContext(r.Context())

		order, err := h.orders.Checkout(r.Context(), identity.Username)
		if err != nil {
			logger.Warn("Checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Checkout complete",
			slog.Uint64("orderId", order.ID),
			slog.Float64("total", order.Total))
		response.WriteJson(w, http.StatusCreated, order)
	}
}

func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid order id")

			return
		}

		order, err := h.orders.GetOrder(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, order)
	}
}
