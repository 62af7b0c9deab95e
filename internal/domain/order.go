package domain

import (
	"context"
	"time"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Search        string // matches order number or customer email
}

// --- Cart Entities ---

// CartItem is a per-user cart line. The cart is keyed by
// (user, product, size, color); quantity is replaced on upsert.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- Order Entities ---

// Order is a persisted purchase attempt with independent fulfillment and
// payment lifecycles. PaymentRef is the sole correlation key between this
// system and the payment gateway's asynchronous notifications; it is unique
// across orders once payment has been initiated.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	User        User   `json:"user"`

	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Total        float64 `json:"total"`

	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingPhone   string `json:"shippingPhone"`

	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentRef    string        `json:"paymentRef"`

	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`

	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// OrderItem is a line-item snapshot. Price is the unit price at time of
// purchase and never changes, even if the catalog price does.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// OrderHistory is one row of the per-order status audit trail.
type OrderHistory struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"orderId"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	NewStatus      OrderStatus `json:"newStatus"`
	Note           string      `json:"note,omitempty"`
	ActorID        string      `json:"actorId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// --- Interfaces ---

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	// CreateOrder persists the order and its items atomically.
	CreateOrder(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetByPaymentRef looks an order up by its gateway payment reference.
	// Returns ErrOrderNotFound when no order carries the reference.
	GetByPaymentRef(ctx context.Context, reference string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)

	// MarkPaid conditionally sets paymentStatus=PAID and status=CONFIRMED.
	// The update is guarded by `payment_status <> 'PAID'` so that of two
	// concurrent writers exactly one observes updated=true.
	MarkPaid(ctx context.Context, id string) (updated bool, err error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus, estimatedDelivery *time.Time) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error

	CreateHistory(ctx context.Context, h *OrderHistory) error
	GetHistory(ctx context.Context, orderID string) ([]OrderHistory, error)

	// Cart
	GetCartItems(ctx context.Context, userID string) ([]CartItem, error)
	UpsertCartItem(ctx context.Context, item *CartItem) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}
