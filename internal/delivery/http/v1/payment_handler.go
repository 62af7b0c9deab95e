package v1

import (
	"errors"
	"io"
	"net/http"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/infrastructure/mail"
	"mhargick-backend/internal/infrastructure/paystack"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/utils"

	"github.com/goccy/go-json"
)

// maxWebhookBody bounds webhook reads; Paystack events are small.
const maxWebhookBody = 1 << 20

// PaymentHandler exposes the gateway-facing surface: the webhook receiver
// and the post-checkout verification endpoint.
type PaymentHandler struct {
	paymentUC     *usecase.PaymentUsecase
	mailer        mail.Mailer
	webhookSecret string
}

func NewPaymentHandler(paymentUC *usecase.PaymentUsecase, mailer mail.Mailer, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentUC:     paymentUC,
		mailer:        mailer,
		webhookSecret: webhookSecret,
	}
}

// Webhook receives Paystack event deliveries. The exact raw body is read
// first and verified against the signature header before any parsing; a bad
// signature is rejected without processing. The response contract:
//
//	200 {"received": true}  processed, or a duplicate/no-op
//	400                     bad signature or unparseable body
//	404                     no order carries the payment reference
//	500                     transient failure; the gateway will redeliver
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !paystack.ValidSignature(h.webhookSecret, body, r.Header.Get(paystack.SignatureHeader)) {
		logger.Get().Warn().Str("ip", r.RemoteAddr).Msg("webhook signature verification failed")
		utils.WriteError(w, http.StatusBadRequest, domain.ErrInvalidSignature.Error())
		return
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "malformed event")
		return
	}

	switch event.Event {
	case paystack.EventChargeSuccess:
		order, updated, err := h.paymentUC.ReconcileChargeSuccess(r.Context(), event.Data.Reference)
		if err != nil {
			h.writeWebhookError(w, event.Data.Reference, err)
			return
		}
		if updated {
			h.sendConfirmation(r, order)
		}

	case paystack.EventChargeFailed:
		err := h.paymentUC.RecordChargeFailure(r.Context(), event.Data.Reference)
		if err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
			h.writeWebhookError(w, event.Data.Reference, err)
			return
		}

	default:
		// Unhandled event types are acknowledged so the gateway stops
		// redelivering them.
		logger.Get().Debug().Str("event", event.Event).Msg("ignoring webhook event")
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHandler) writeWebhookError(w http.ResponseWriter, reference string, err error) {
	log := logger.Get()
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		log.Warn().Str("reference", reference).Msg("webhook for unknown payment reference")
		utils.WriteError(w, http.StatusNotFound, "unknown payment reference")
	default:
		// Includes ErrInvalidState and ErrConflict: respond 500 so the
		// gateway retries once the situation is investigated or resolves.
		log.Error().Err(err).Str("reference", reference).Msg("webhook processing failed")
		utils.WriteError(w, http.StatusInternalServerError, "processing failed")
	}
}

func (h *PaymentHandler) sendConfirmation(r *http.Request, order *domain.Order) {
	if h.mailer == nil {
		return
	}
	if err := h.mailer.SendOrderConfirmation(r.Context(), order); err != nil {
		logger.Get().Error().Err(err).Str("orderId", order.ID).Msg("order confirmation mail failed")
	}
}

// Verify backs the browser redirect after hosted checkout: it asks the
// gateway for the authoritative charge state and reconciles, covering the
// window before the webhook lands.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")
	if reference == "" {
		utils.WriteError(w, http.StatusBadRequest, "reference required")
		return
	}

	order, err := h.paymentUC.VerifyAndReconcile(r.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			utils.WriteError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
			utils.WriteError(w, http.StatusConflict, err.Error())
		default:
			utils.WriteError(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	user := userFromRequest(r)
	if user == nil || (order.UserID != user.ID && !user.IsAdmin()) {
		utils.WriteError(w, http.StatusNotFound, "order not found")
		return
	}

	utils.WriteJSON(w, http.StatusOK, order)
}
