package v1

import (
	"errors"
	"net/http"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/utils"
)

type OrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewOrderHandler(orderUC *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orderUC: orderUC}
}

// --- Cart ---

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	cart, err := h.orderUC.GetCart(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

type addToCartReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)

	var req addToCartReq
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		utils.WriteError(w, http.StatusBadRequest, "productId required")
		return
	}

	err := h.orderUC.AddToCart(r.Context(), user.ID, req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound),
			errors.Is(err, domain.ErrInsufficientStock),
			errors.Is(err, domain.ErrInvalidQuantity):
			utils.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			utils.WriteError(w, http.StatusInternalServerError, "failed to update cart")
		}
		return
	}

	cart, err := h.orderUC.GetCart(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	productID := r.PathValue("productId")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "product id required")
		return
	}

	if err := h.orderUC.RemoveFromCart(r.Context(), user.ID, productID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	cart, err := h.orderUC.GetCart(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// --- Checkout & Orders ---

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)

	var req usecase.CheckoutInput
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShippingAddress == "" || req.ShippingCity == "" || req.ShippingState == "" || req.ShippingPhone == "" {
		utils.WriteError(w, http.StatusBadRequest, "complete shipping details are required")
		return
	}

	result, err := h.orderUC.Checkout(r.Context(), user.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart),
			errors.Is(err, domain.ErrInsufficientStock),
			errors.Is(err, domain.ErrProductNotFound):
			utils.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			utils.WriteError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}
	utils.WriteJSON(w, http.StatusCreated, result)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	orders, err := h.orderUC.GetMyOrders(r.Context(), user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	order, err := h.orderUC.GetOrder(r.Context(), r.PathValue("id"), user)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			utils.WriteError(w, http.StatusNotFound, "order not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	history, err := h.orderUC.GetHistory(r.Context(), r.PathValue("id"), user)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			utils.WriteError(w, http.StatusNotFound, "order not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch order history")
		return
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

// CancelOrder lets a customer cancel their own order while it has not
// shipped. Paid orders keep their payment status; refunds are handled out of
// band.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	order, err := h.orderUC.RequestCancellation(r.Context(), r.PathValue("id"), user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			utils.WriteError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			utils.WriteError(w, http.StatusForbidden, "not your order")
		case errors.Is(err, domain.ErrNotCancellable):
			utils.WriteError(w, http.StatusConflict, err.Error())
		default:
			utils.WriteError(w, http.StatusInternalServerError, "cancellation failed")
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
