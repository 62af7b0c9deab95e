package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"mhargick-backend/config"
	"mhargick-backend/internal/domain"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/utils"
)

// OrderUsecase owns the cart, checkout and the fulfillment side of the order
// lifecycle. Payment reconciliation lives in PaymentUsecase.
type OrderUsecase struct {
	orders   domain.OrderRepository
	products domain.ProductRepository
	users    domain.UserRepository
	tm       domain.TransactionManager
	gateway  PaymentGateway
	cfg      *config.Config
}

func NewOrderUsecase(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	tm domain.TransactionManager,
	gateway PaymentGateway,
	cfg *config.Config,
) *OrderUsecase {
	return &OrderUsecase{
		orders:   orders,
		products: products,
		users:    users,
		tm:       tm,
		gateway:  gateway,
		cfg:      cfg,
	}
}

// --- Cart ---

func (u *OrderUsecase) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return u.orders.GetCartItems(ctx, userID)
}

// AddToCart sets the quantity for a (product, size, color) line; adding the
// same line again replaces the quantity rather than accumulating it.
func (u *OrderUsecase) AddToCart(ctx context.Context, userID, productID string, quantity int, size, color string) error {
	if quantity < 1 || quantity > u.cfg.MaxCartQuantity {
		return fmt.Errorf("%w: must be between 1 and %d", domain.ErrInvalidQuantity, u.cfg.MaxCartQuantity)
	}

	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return domain.ErrProductNotFound
	}
	if product.Stock < quantity {
		return domain.ErrInsufficientStock
	}

	return u.orders.UpsertCartItem(ctx, &domain.CartItem{
		ID:        utils.GenerateUUID(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
	})
}

func (u *OrderUsecase) RemoveFromCart(ctx context.Context, userID, productID string) error {
	return u.orders.RemoveCartItem(ctx, userID, productID)
}

// --- Checkout ---

type CheckoutInput struct {
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingPhone   string `json:"shippingPhone"`
}

type CheckoutResult struct {
	Order            *domain.Order `json:"order"`
	AuthorizationURL string        `json:"authorizationUrl"`
}

// Checkout turns the user's cart into a PENDING/PENDING order and opens a
// hosted payment session. Prices are snapshotted into the line items at this
// point; later catalog changes do not affect the order. Stock is reserved and
// the cart cleared in the same transaction as the order insert.
func (u *OrderUsecase) Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := u.orders.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var subtotal float64
	items := make([]domain.OrderItem, 0, len(cart))
	for _, ci := range cart {
		if !ci.Product.IsActive {
			return nil, domain.ErrProductNotFound
		}
		if ci.Product.Stock < ci.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		price := ci.Product.EffectivePrice()
		subtotal += price * float64(ci.Quantity)
		items = append(items, domain.OrderItem{
			ID:        utils.GenerateUUID(),
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     price,
			Size:      ci.Size,
			Color:     ci.Color,
		})
	}
	total := subtotal + u.cfg.ShippingFee

	callbackURL := u.cfg.FrontendURL + "/checkout/callback"
	tx, err := u.gateway.InitializeTransaction(ctx, user.Email, toKobo(total), callbackURL)
	if err != nil {
		return nil, fmt.Errorf("initialize payment: %w", err)
	}

	order := &domain.Order{
		ID:              utils.GenerateUUID(),
		OrderNumber:     utils.GenerateOrderNumber(),
		UserID:          userID,
		User:            *user,
		Subtotal:        subtotal,
		ShippingCost:    u.cfg.ShippingFee,
		Total:           total,
		ShippingAddress: in.ShippingAddress,
		ShippingCity:    in.ShippingCity,
		ShippingState:   in.ShippingState,
		ShippingPhone:   in.ShippingPhone,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   "paystack",
		PaymentRef:      tx.Reference,
		Items:           items,
	}

	err = u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := u.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				return err
			}
		}
		return u.orders.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("orderId", order.ID).
		Str("orderNumber", order.OrderNumber).
		Float64("total", total).
		Msg("order placed")

	return &CheckoutResult{Order: order, AuthorizationURL: tx.AuthorizationURL}, nil
}

// toKobo converts a naira amount to the gateway's integer minor unit.
func toKobo(naira float64) int64 {
	return int64(math.Round(naira * 100))
}

// --- Lifecycle ---

// RequestCancellation cancels an order on behalf of its owner or an admin.
// Orders are cancellable until they ship; the reserved stock is returned.
// Payment state is untouched: refunds for paid orders are handled out of
// band.
func (u *OrderUsecase) RequestCancellation(ctx context.Context, orderID string, actor *domain.User) (*domain.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !order.Status.Cancellable() {
		return nil, domain.ErrNotCancellable
	}

	err = u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, nil); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := u.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return u.orders.CreateHistory(ctx, &domain.OrderHistory{
			ID:             utils.GenerateUUID(),
			OrderID:        order.ID,
			PreviousStatus: order.Status,
			NewStatus:      domain.OrderStatusCancelled,
			Note:           "cancelled by request",
			ActorID:        actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("orderId", order.ID).
		Str("actorId", actor.ID).
		Msg("order cancelled")

	return u.orders.GetByID(ctx, order.ID)
}

// AdvanceFulfillment moves an order along the fulfillment lifecycle. Only
// admins may call it, and only moves present in the transition table are
// allowed. Shipping stamps the estimated delivery date.
func (u *OrderUsecase) AdvanceFulfillment(ctx context.Context, orderID string, to domain.OrderStatus, actor *domain.User) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !to.Valid() {
		return nil, domain.ErrInvalidTransition
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, to)
	}
	// An order must be paid before it can be handed to the customer.
	if to == domain.OrderStatusDelivered && order.PaymentStatus != domain.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: cannot deliver an unpaid order", domain.ErrInvalidState)
	}

	var estimatedDelivery *time.Time
	if to == domain.OrderStatusShipped {
		eta := time.Now().AddDate(0, 0, u.cfg.EstimatedDeliveryDays)
		estimatedDelivery = &eta
	}

	err = u.tm.Do(ctx, func(ctx context.Context) error {
		if err := u.orders.UpdateStatus(ctx, order.ID, to, estimatedDelivery); err != nil {
			return err
		}
		return u.orders.CreateHistory(ctx, &domain.OrderHistory{
			ID:             utils.GenerateUUID(),
			OrderID:        order.ID,
			PreviousStatus: order.Status,
			NewStatus:      to,
			ActorID:        actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("orderId", order.ID).
		Str("from", string(order.Status)).
		Str("to", string(to)).
		Msg("order status advanced")

	return u.orders.GetByID(ctx, order.ID)
}

// --- Queries ---

func (u *OrderUsecase) GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return u.orders.GetByUserID(ctx, userID)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string, actor *domain.User) (*domain.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (u *OrderUsecase) GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return u.orders.GetAll(ctx, filter)
}

func (u *OrderUsecase) GetHistory(ctx context.Context, orderID string, actor *domain.User) ([]domain.OrderHistory, error) {
	if _, err := u.GetOrder(ctx, orderID, actor); err != nil {
		return nil, err
	}
	return u.orders.GetHistory(ctx, orderID)
}
