package domain

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusConfirmed}:    true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusConfirmed, OrderStatusProcessing}: true,
		{OrderStatusConfirmed, OrderStatusCancelled}:  true,
		{OrderStatusProcessing, OrderStatusShipped}:   true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
		{OrderStatusShipped, OrderStatusDelivered}:    true,
		{OrderStatusShipped, OrderStatusReturned}:     true,
		{OrderStatusDelivered, OrderStatusReturned}:   true,
	}

	for _, from := range OrderStatuses {
		for _, to := range OrderStatuses {
			want := allowed[[2]OrderStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("BOGUS", OrderStatusConfirmed) {
		t.Error("unknown source status should not transition anywhere")
	}
	if CanTransition(OrderStatusPending, "BOGUS") {
		t.Error("no status should transition to an unknown status")
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusCancelled: true,
		OrderStatusReturned:  true,
	}
	for _, s := range OrderStatuses {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestCancellable(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusConfirmed:  true,
		OrderStatusProcessing: true,
	}
	for _, s := range OrderStatuses {
		if got := s.Cancellable(); got != cancellable[s] {
			t.Errorf("%s.Cancellable() = %v, want %v", s, got, cancellable[s])
		}
	}
}

func TestNextStatusesIsACopy(t *testing.T) {
	next := NextStatuses(OrderStatusPending)
	if len(next) != 2 {
		t.Fatalf("expected 2 statuses out of PENDING, got %d", len(next))
	}
	next[0] = OrderStatusReturned
	if CanTransition(OrderStatusPending, OrderStatusReturned) {
		t.Error("mutating NextStatuses result leaked into the transition table")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if OrderStatus("SHIPPED ").Valid() {
		t.Error("padded status should not be valid")
	}
	for _, s := range PaymentStatuses {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if PaymentStatus("paid").Valid() {
		t.Error("lowercase payment status should not be valid")
	}
}
