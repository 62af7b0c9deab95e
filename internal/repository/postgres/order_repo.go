package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mhargick-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `o.id, o.order_number, o.user_id, o.subtotal, o.shipping_cost, o.total,
	o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_phone,
	o.status, o.payment_status, o.payment_method, o.payment_ref,
	o.estimated_delivery, o.created_at, o.updated_at,
	u.email, u.name`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Subtotal, &o.ShippingCost, &o.Total,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingState, &o.ShippingPhone,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentRef,
		&o.EstimatedDelivery, &o.CreatedAt, &o.UpdatedAt,
		&o.User.Email, &o.User.Name,
	)
	if err != nil {
		return nil, err
	}
	o.User.ID = o.UserID
	return &o, nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	q := db(ctx, r.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, subtotal, shipping_cost, total,
			shipping_address, shipping_city, shipping_state, shipping_phone,
			status, payment_status, payment_method, payment_ref,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())`,
		order.ID, order.OrderNumber, order.UserID, order.Subtotal, order.ShippingCost, order.Total,
		order.ShippingAddress, order.ShippingCity, order.ShippingState, order.ShippingPhone,
		order.Status, order.PaymentStatus, order.PaymentMethod, order.PaymentRef,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price, size, color)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price, item.Size, item.Color,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := db(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByPaymentRef(ctx context.Context, reference string) (*domain.Order, error) {
	q := db(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.payment_ref = $1`, reference)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := db(ctx, r.pool)

	where := " WHERE 1=1"
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where += fmt.Sprintf(" AND o.payment_status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (o.order_number ILIKE $%d OR u.email ILIKE $%d)", len(args), len(args))
	}

	var total int64
	countSQL := "SELECT count(*) FROM orders o JOIN users u ON u.id = o.user_id" + where
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	listSQL := fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders o JOIN users u ON u.id = o.user_id
		%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, filter.Limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price, i.size, i.color,
		       p.name, p.slug, p.image_url
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Size, &item.Color,
			&item.Product.Name, &item.Product.Slug, &item.Product.ImageURL,
		); err != nil {
			return err
		}
		item.Product.ID = item.ProductID
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// MarkPaid performs the compare-and-set that makes webhook reconciliation
// safe under concurrent duplicate deliveries: only a row that is not yet
// PAID is updated, so exactly one writer wins.
func (r *orderRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, status = $3, updated_at = now()
		WHERE id = $1 AND payment_status <> $2`,
		id, domain.PaymentStatusPaid, domain.OrderStatusConfirmed,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, estimatedDelivery *time.Time) error {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE orders
		SET status = $2, estimated_delivery = COALESCE($3, estimated_delivery), updated_at = now()
		WHERE id = $1`,
		id, status, estimatedDelivery,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	q := db(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// --- History ---

func (r *orderRepository) CreateHistory(ctx context.Context, h *domain.OrderHistory) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, note, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())`,
		h.ID, h.OrderID, h.PreviousStatus, h.NewStatus, h.Note, h.ActorID,
	)
	return err
}

func (r *orderRepository) GetHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT id, order_id, previous_status, new_status, note, actor_id, created_at
		FROM order_history WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.OrderHistory, 0)
	for rows.Next() {
		var h domain.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousStatus, &h.NewStatus, &h.Note, &h.ActorID, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// --- Cart Methods ---

func (r *orderRepository) GetCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	q := db(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.size, c.color, c.created_at,
		       p.name, p.slug, p.price, p.sale_price, p.image_url, p.stock, p.is_active
		FROM cart_items c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.Size, &item.Color, &item.CreatedAt,
			&item.Product.Name, &item.Product.Slug, &item.Product.Price, &item.Product.SalePrice,
			&item.Product.ImageURL, &item.Product.Stock, &item.Product.IsActive,
		); err != nil {
			return nil, err
		}
		item.Product.ID = item.ProductID
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepository) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, size, color, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = EXCLUDED.quantity`,
		item.ID, item.UserID, item.ProductID, item.Quantity, item.Size, item.Color,
	)
	return err
}

func (r *orderRepository) RemoveCartItem(ctx context.Context, userID, productID string) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	return err
}

func (r *orderRepository) ClearCart(ctx context.Context, userID string) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
