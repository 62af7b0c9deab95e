package domain

import "errors"

// Engine and boundary errors. Handlers map these to HTTP status codes with
// errors.Is, so they must stay comparable sentinels.
var (
	// ErrOrderNotFound means no order matches the given id or payment
	// reference. For webhook deliveries this is non-retryable.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidSignature means a webhook body failed HMAC verification.
	// Nothing is processed when this is returned.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidTransition means the requested order status change is not in
	// the transition table. Stored state is untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState means the order was found in a status the operation
	// does not expect, e.g. payment confirmation arriving for an order that
	// already progressed past PENDING through other means.
	ErrInvalidState = errors.New("order in unexpected state")

	// ErrNotCancellable means the order has shipped or reached a terminal
	// status and can no longer be cancelled.
	ErrNotCancellable = errors.New("order can no longer be cancelled")

	// ErrConflict means a conditional update affected zero rows and a
	// re-read could not confirm another writer completed the same change.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrForbidden means the acting user lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")

	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
