package usecase

import (
	"context"
	"errors"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/infrastructure/paystack"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/utils"
)

// PaymentGateway is the slice of the Paystack client the payment flows use.
// Tests substitute a fake.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amountKobo int64, callbackURL string) (*paystack.Transaction, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Verification, error)
}

// PaymentUsecase reconciles gateway charge notifications with stored order
// state. All entry points are idempotent: replaying a notification that has
// already been applied changes nothing.
type PaymentUsecase struct {
	orders  domain.OrderRepository
	tm      domain.TransactionManager
	gateway PaymentGateway
}

func NewPaymentUsecase(orders domain.OrderRepository, tm domain.TransactionManager, gateway PaymentGateway) *PaymentUsecase {
	return &PaymentUsecase{orders: orders, tm: tm, gateway: gateway}
}

// ReconcileChargeSuccess applies a successful charge to the order carrying
// the payment reference. It returns the order and whether this call was the
// one that performed the transition; callers fire side effects (confirmation
// mail) only when updated is true, so duplicate deliveries stay silent.
//
// Concurrency is resolved by a conditional update rather than locks: the
// write is guarded by `payment_status <> PAID`, and a loser of the race
// re-reads to confirm the winner completed the same change.
func (u *PaymentUsecase) ReconcileChargeSuccess(ctx context.Context, reference string) (*domain.Order, bool, error) {
	log := logger.Get()

	order, err := u.orders.GetByPaymentRef(ctx, reference)
	if err != nil {
		return nil, false, err
	}

	if order.PaymentStatus == domain.PaymentStatusPaid {
		log.Debug().Str("reference", reference).Msg("charge already reconciled")
		return order, false, nil
	}
	if order.Status != domain.OrderStatusPending {
		log.Warn().
			Str("reference", reference).
			Str("status", string(order.Status)).
			Msg("charge success for order not awaiting payment")
		return nil, false, domain.ErrInvalidState
	}

	for attempt := 0; attempt < 2; attempt++ {
		updated, err := u.markPaid(ctx, order)
		if err != nil {
			return nil, false, err
		}
		if updated {
			confirmed, err := u.orders.GetByID(ctx, order.ID)
			if err != nil {
				return nil, false, err
			}
			log.Info().
				Str("orderId", order.ID).
				Str("reference", reference).
				Msg("payment confirmed")
			return confirmed, true, nil
		}

		// Zero rows: somebody else got there between our read and the
		// write. Re-read to see what they did.
		order, err = u.orders.GetByID(ctx, order.ID)
		if err != nil {
			return nil, false, err
		}
		if order.PaymentStatus == domain.PaymentStatusPaid {
			return order, false, nil
		}
	}

	return nil, false, domain.ErrConflict
}

// markPaid performs the conditional transition and writes the audit row in
// the same transaction, so the history never disagrees with the order.
func (u *PaymentUsecase) markPaid(ctx context.Context, order *domain.Order) (bool, error) {
	var updated bool
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = u.orders.MarkPaid(ctx, order.ID)
		if err != nil || !updated {
			return err
		}
		return u.orders.CreateHistory(ctx, &domain.OrderHistory{
			ID:             utils.GenerateUUID(),
			OrderID:        order.ID,
			PreviousStatus: domain.OrderStatusPending,
			NewStatus:      domain.OrderStatusConfirmed,
			Note:           "payment confirmed via " + order.PaymentMethod,
		})
	})
	return updated, err
}

// RecordChargeFailure marks the payment FAILED unless the order has already
// been paid; a failure notification never downgrades a successful payment.
func (u *PaymentUsecase) RecordChargeFailure(ctx context.Context, reference string) error {
	order, err := u.orders.GetByPaymentRef(ctx, reference)
	if err != nil {
		return err
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		return nil
	}
	logger.Get().Info().
		Str("orderId", order.ID).
		Str("reference", reference).
		Msg("charge failed")
	return u.orders.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusFailed)
}

// VerifyAndReconcile asks the gateway for the authoritative charge state and
// applies it. It backs the browser callback after hosted checkout, where the
// webhook may not have arrived yet.
func (u *PaymentUsecase) VerifyAndReconcile(ctx context.Context, reference string) (*domain.Order, error) {
	v, err := u.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	if v.Status != "success" {
		if err := u.RecordChargeFailure(ctx, reference); err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return u.orders.GetByPaymentRef(ctx, reference)
	}

	order, _, err := u.ReconcileChargeSuccess(ctx, reference)
	return order, err
}
