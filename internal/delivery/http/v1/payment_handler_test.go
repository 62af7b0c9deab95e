package v1

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/infrastructure/paystack"
	"mhargick-backend/internal/usecase"

	"github.com/goccy/go-json"
)

const testSecret = "sk_test_webhook"

// stubOrderRepo covers the slice of the repository the webhook path touches.
type stubOrderRepo struct {
	order         *domain.Order
	markPaidCalls int
	historyRows   int
}

func (s *stubOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error { return nil }

func (s *stubOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, domain.ErrOrderNotFound
	}
	cp := *s.order
	return &cp, nil
}

func (s *stubOrderRepo) GetByPaymentRef(ctx context.Context, reference string) (*domain.Order, error) {
	if s.order == nil || s.order.PaymentRef != reference {
		return nil, domain.ErrOrderNotFound
	}
	cp := *s.order
	return &cp, nil
}

func (s *stubOrderRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return nil, 0, nil
}

func (s *stubOrderRepo) MarkPaid(ctx context.Context, id string) (bool, error) {
	s.markPaidCalls++
	if s.order == nil || s.order.ID != id || s.order.PaymentStatus == domain.PaymentStatusPaid {
		return false, nil
	}
	s.order.PaymentStatus = domain.PaymentStatusPaid
	s.order.Status = domain.OrderStatusConfirmed
	return true, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, estimatedDelivery *time.Time) error {
	s.order.Status = status
	return nil
}

func (s *stubOrderRepo) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	s.order.PaymentStatus = status
	return nil
}

func (s *stubOrderRepo) CreateHistory(ctx context.Context, h *domain.OrderHistory) error {
	s.historyRows++
	return nil
}

func (s *stubOrderRepo) GetHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	return nil, nil
}

func (s *stubOrderRepo) GetCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return nil, nil
}

func (s *stubOrderRepo) UpsertCartItem(ctx context.Context, item *domain.CartItem) error { return nil }

func (s *stubOrderRepo) RemoveCartItem(ctx context.Context, userID, productID string) error {
	return nil
}

func (s *stubOrderRepo) ClearCart(ctx context.Context, userID string) error { return nil }

type passTM struct{}

func (passTM) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type stubGateway struct{}

func (stubGateway) InitializeTransaction(ctx context.Context, email string, amountKobo int64, callbackURL string) (*paystack.Transaction, error) {
	return &paystack.Transaction{Reference: "ref-1"}, nil
}

func (stubGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.Verification, error) {
	return &paystack.Verification{Reference: reference, Status: "success"}, nil
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	m.sent = append(m.sent, order.ID)
	return nil
}

func newWebhookFixture(order *domain.Order) (*PaymentHandler, *stubOrderRepo, *recordingMailer) {
	repo := &stubOrderRepo{order: order}
	mailer := &recordingMailer{}
	uc := usecase.NewPaymentUsecase(repo, passTM{}, stubGateway{})
	return NewPaymentHandler(uc, mailer, testSecret), repo, mailer
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		UserID:        "user-1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: "paystack",
		PaymentRef:    "ref-1",
	}
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *PaymentHandler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func chargeEvent(event, reference string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  map[string]interface{}{"reference": reference, "amount": 3250000, "status": "success"},
	})
	return body
}

func TestWebhookChargeSuccess(t *testing.T) {
	h, repo, mailer := newWebhookFixture(pendingOrder())

	body := chargeEvent("charge.success", "ref-1")
	rec := postWebhook(t, h, body, signBody(testSecret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"received":true`) {
		t.Errorf("body = %s, want received:true", rec.Body.String())
	}
	if repo.order.PaymentStatus != domain.PaymentStatusPaid || repo.order.Status != domain.OrderStatusConfirmed {
		t.Errorf("order state = %s/%s, want CONFIRMED/PAID", repo.order.Status, repo.order.PaymentStatus)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("confirmation mails = %d, want 1", len(mailer.sent))
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	h, repo, mailer := newWebhookFixture(pendingOrder())
	body := chargeEvent("charge.success", "ref-1")
	sig := signBody(testSecret, body)

	first := postWebhook(t, h, body, sig)
	second := postWebhook(t, h, body, sig)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200 for both", first.Code, second.Code)
	}
	if repo.historyRows != 1 {
		t.Errorf("history rows = %d, want 1", repo.historyRows)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("confirmation mails = %d, want 1 (duplicates must stay silent)", len(mailer.sent))
	}
}

func TestWebhookBadSignature(t *testing.T) {
	h, repo, _ := newWebhookFixture(pendingOrder())
	body := chargeEvent("charge.success", "ref-1")

	rec := postWebhook(t, h, body, signBody("wrong-secret", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if repo.markPaidCalls != 0 {
		t.Error("nothing may be processed on a bad signature")
	}
	if repo.order.PaymentStatus != domain.PaymentStatusPending {
		t.Error("order state must be untouched on a bad signature")
	}
}

func TestWebhookTamperedBody(t *testing.T) {
	h, repo, _ := newWebhookFixture(pendingOrder())
	body := chargeEvent("charge.success", "ref-1")
	sig := signBody(testSecret, body)

	tampered := bytes.Replace(body, []byte("ref-1"), []byte("ref-9"), 1)
	rec := postWebhook(t, h, tampered, sig)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if repo.markPaidCalls != 0 {
		t.Error("tampered body must not be processed")
	}
}

func TestWebhookMissingSignature(t *testing.T) {
	h, _, _ := newWebhookFixture(pendingOrder())
	rec := postWebhook(t, h, chargeEvent("charge.success", "ref-1"), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookUnknownReference(t *testing.T) {
	h, _, _ := newWebhookFixture(pendingOrder())
	body := chargeEvent("charge.success", "ref-missing")

	rec := postWebhook(t, h, body, signBody(testSecret, body))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookChargeFailed(t *testing.T) {
	h, repo, mailer := newWebhookFixture(pendingOrder())
	body := chargeEvent("charge.failed", "ref-1")

	rec := postWebhook(t, h, body, signBody(testSecret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.order.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want FAILED", repo.order.PaymentStatus)
	}
	if repo.order.Status != domain.OrderStatusPending {
		t.Errorf("order status = %s, want PENDING untouched", repo.order.Status)
	}
	if len(mailer.sent) != 0 {
		t.Error("no confirmation mail for a failed charge")
	}
}

func TestWebhookIgnoresForeignEvents(t *testing.T) {
	h, repo, _ := newWebhookFixture(pendingOrder())
	body := chargeEvent("transfer.success", "ref-1")

	rec := postWebhook(t, h, body, signBody(testSecret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.markPaidCalls != 0 {
		t.Error("foreign events must not touch orders")
	}
}

func TestWebhookInvalidStateIsServerError(t *testing.T) {
	order := pendingOrder()
	order.Status = domain.OrderStatusCancelled
	h, _, _ := newWebhookFixture(order)
	body := chargeEvent("charge.success", "ref-1")

	rec := postWebhook(t, h, body, signBody(testSecret, body))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookMalformedJSON(t *testing.T) {
	h, _, _ := newWebhookFixture(pendingOrder())
	body := []byte(`{"event":`)

	rec := postWebhook(t, h, body, signBody(testSecret, body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
