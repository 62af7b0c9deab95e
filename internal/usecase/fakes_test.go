package usecase

import (
	"context"
	"sync"
	"time"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/infrastructure/paystack"
)

// fakeOrderRepo is an in-memory domain.OrderRepository with the same CAS
// semantics as the SQL implementation, so the reconciliation paths can be
// driven without a database.
type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	history []domain.OrderHistory
	cart    map[string][]domain.CartItem

	// products mirrors the SQL repository's join against the products table
	// in GetCartItems; when set, returned cart items carry the product row.
	products *fakeProductRepo

	markPaidCalls     int
	forceMarkPaidFail int // next N MarkPaid calls report zero rows
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]*domain.Order),
		cart:   make(map[string][]domain.CartItem),
	}
}

func (f *fakeOrderRepo) put(o *domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	f.put(order)
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetByPaymentRef(ctx context.Context, reference string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentRef == reference {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markPaidCalls++
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	if f.forceMarkPaidFail > 0 {
		f.forceMarkPaidFail--
		return false, nil
	}
	if o.PaymentStatus == domain.PaymentStatusPaid {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Status = domain.OrderStatusConfirmed
	return true, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, estimatedDelivery *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	if estimatedDelivery != nil {
		o.EstimatedDelivery = estimatedDelivery
	}
	return nil
}

func (f *fakeOrderRepo) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrderRepo) CreateHistory(ctx context.Context, h *domain.OrderHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeOrderRepo) GetHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OrderHistory
	for _, h := range f.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetCartItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	f.mu.Lock()
	items := append([]domain.CartItem(nil), f.cart[userID]...)
	f.mu.Unlock()
	if f.products != nil {
		for i := range items {
			if p, err := f.products.GetByID(ctx, items[i].ProductID); err == nil {
				items[i].Product = *p
			}
		}
	}
	return items, nil
}

func (f *fakeOrderRepo) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.cart[item.UserID]
	for i := range items {
		if items[i].ProductID == item.ProductID && items[i].Size == item.Size && items[i].Color == item.Color {
			items[i].Quantity = item.Quantity
			return nil
		}
	}
	f.cart[item.UserID] = append(items, *item)
	return nil
}

func (f *fakeOrderRepo) RemoveCartItem(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.cart[userID]
	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	f.cart[userID] = kept
	return nil
}

func (f *fakeOrderRepo) ClearCart(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cart, userID)
	return nil
}

// fakeTM runs the function without a real transaction.
type fakeTM struct{}

func (fakeTM) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeGateway is a canned PaymentGateway.
type fakeGateway struct {
	initResult   *paystack.Transaction
	initErr      error
	verifyResult *paystack.Verification
	verifyErr    error
	initCalls    int
	verifyCalls  int
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, email string, amountKobo int64, callbackURL string) (*paystack.Transaction, error) {
	g.initCalls++
	return g.initResult, g.initErr
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.Verification, error) {
	g.verifyCalls++
	return g.verifyResult, g.verifyErr
}

// fakeProductRepo backs checkout and cancellation tests.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		f.products[p.ID] = &cp
	}
	return f
}

func (f *fakeProductRepo) Create(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *domain.Product) error {
	return f.Create(ctx, p)
}

func (f *fakeProductRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) AdjustStock(ctx context.Context, productID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return domain.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

func (f *fakeProductRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return nil, nil
}

func (f *fakeProductRepo) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return nil, nil
}

func (f *fakeProductRepo) CreateReview(ctx context.Context, r *domain.Review) error {
	return nil
}

// fakeUserRepo holds users and refresh tokens in memory.
type fakeUserRepo struct {
	users  map[string]*domain.User
	tokens map[string]*domain.RefreshToken
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]*domain.RefreshToken),
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	cp := *token
	f.tokens[token.Token] = &cp
	return nil
}

func (f *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	cp := *t
	return &cp, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	if t, ok := f.tokens[token]; ok {
		t.Revoked = true
	}
	return nil
}
