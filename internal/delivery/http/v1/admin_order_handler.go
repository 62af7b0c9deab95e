package v1

import (
	"errors"
	"net/http"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(orderUC *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: orderUC}
}

func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := domain.OrderFilter{
		Page:          page,
		Limit:         limit,
		Status:        domain.OrderStatus(r.URL.Query().Get("status")),
		PaymentStatus: domain.PaymentStatus(r.URL.Query().Get("paymentStatus")),
		Search:        r.URL.Query().Get("search"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		utils.WriteError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		utils.WriteError(w, http.StatusBadRequest, "unknown payment status filter")
		return
	}

	orders, total, err := h.orderUC.GetAllOrders(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	utils.WriteJSON(w, http.StatusOK, newPagedResponse(orders, page, limit, total))
}

type updateStatusReq struct {
	Status domain.OrderStatus `json:"status"`
}

// UpdateStatus moves an order along the fulfillment lifecycle. Illegal moves
// are rejected with 409 and the stored state is untouched.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)

	var req updateStatusReq
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderUC.AdvanceFulfillment(r.Context(), r.PathValue("id"), req.Status, user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			utils.WriteError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			utils.WriteError(w, http.StatusForbidden, "admins only")
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidState):
			utils.WriteError(w, http.StatusConflict, err.Error())
		default:
			utils.WriteError(w, http.StatusInternalServerError, "status update failed")
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// Statuses exposes the lifecycle vocabulary and the legal moves out of each
// status, so admin UIs can render only valid actions.
func (h *AdminOrderHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	next := make(map[domain.OrderStatus][]domain.OrderStatus, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		next[s] = domain.NextStatuses(s)
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orderStatuses":   domain.OrderStatuses,
		"paymentStatuses": domain.PaymentStatuses,
		"transitions":     next,
	})
}
