package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:     "order-1",
		Number: "PS-20260101-ABC123",
		Customer: domain.Customer{
			FirstName: "Ana",
			LastName:  "Pop",
			Email:     "ana@example.com",
		},
		PaymentMethod: domain.PaymentMethodCard,
		Status:        domain.OrderStatusPending,
		Currency:      domain.Currency,
		SubtotalMinor: 26000,
		ShippingMinor: 2500,
		DiscountMinor: 1000,
		AmountMinor:   27500,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductSlug: "banner", Qty: 2, PriceMinor: 13000, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{name: "no customer", mut: func(o *domain.Order) { o.Customer.Email = "" }, want: domain.ErrCustomerRequired},
		{name: "negative amount", mut: func(o *domain.Order) { o.AmountMinor = -1 }, want: domain.ErrAmountNegative},
		{name: "no items", mut: func(o *domain.Order) { o.Items = nil }, want: domain.ErrItemsRequired},
		{name: "qty invalid", mut: func(o *domain.Order) { o.Items[0].Qty = 0 }, want: domain.ErrItemQtyInvalid},
		{name: "price invalid", mut: func(o *domain.Order) { o.Items[0].PriceMinor = -5 }, want: domain.ErrItemPriceInvalid},
		{name: "amount mismatch", mut: func(o *domain.Order) { o.AmountMinor = 999 }, want: domain.ErrAmountMismatch},
		{name: "discount ignored", mut: func(o *domain.Order) { o.DiscountMinor = 0 }, want: domain.ErrAmountMismatch},
		{name: "unknown status", mut: func(o *domain.Order) { o.Status = "shipped" }, want: domain.ErrInvalidOrderStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			errs := order.ValidateInvariants()
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestOrderStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.OrderStatus
		want     bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusPaid, true},
		{domain.OrderStatusPending, domain.OrderStatusInProgress, true},
		{domain.OrderStatusPending, domain.OrderStatusFulfilled, false},
		{domain.OrderStatusPaid, domain.OrderStatusFulfilled, true},
		{domain.OrderStatusInProgress, domain.OrderStatusPaid, false},
		{domain.OrderStatusFulfilled, domain.OrderStatusCanceled, false},
		{domain.OrderStatusCanceled, domain.OrderStatusPending, false},
		{domain.OrderStatusCanceled, domain.OrderStatusCanceled, true},
		{domain.OrderStatusPending, "shipped", false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Fatalf("CanTransition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOrderTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("cancel sets timestamp", func(t *testing.T) {
		order := makeOrder()
		changed, err := order.Transition(domain.OrderStatusCanceled, now)
		if err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		if !changed || order.CanceledAt == nil || !order.CanceledAt.Equal(now) {
			t.Fatalf("expected canceled_at to be set, got %+v", order.CanceledAt)
		}
	})

	t.Run("same status is no-op", func(t *testing.T) {
		order := makeOrder()
		order.Status = domain.OrderStatusCanceled
		changed, err := order.Transition(domain.OrderStatusCanceled, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if changed {
			t.Fatal("expected no change")
		}
	})

	t.Run("unknown status keeps order unchanged", func(t *testing.T) {
		order := makeOrder()
		_, err := order.Transition("shipped", now)
		if !errors.Is(err, domain.ErrInvalidOrderStatus) {
			t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
		}
		if order.Status != domain.OrderStatusPending {
			t.Fatalf("status changed to %s", order.Status)
		}
	})

	t.Run("terminal status rejects transition", func(t *testing.T) {
		order := makeOrder()
		order.Status = domain.OrderStatusFulfilled
		_, err := order.Transition(domain.OrderStatusInProgress, now)
		if !errors.Is(err, domain.ErrInvalidStatusTransition) {
			t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus(" In_Progress ")
	if err != nil || status != domain.OrderStatusInProgress {
		t.Fatalf("unexpected parse result %q, %v", status, err)
	}
	if _, err := domain.ParseOrderStatus("lost"); !errors.Is(err, domain.ErrInvalidOrderStatus) {
		t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
	}
}

func TestPaymentMethodInitialStatus(t *testing.T) {
	if got := domain.PaymentMethodCashOnDelivery.InitialStatus(); got != domain.OrderStatusPaid {
		t.Fatalf("cash on delivery starts as %s", got)
	}
	if got := domain.PaymentMethodCard.InitialStatus(); got != domain.OrderStatusPending {
		t.Fatalf("card starts as %s", got)
	}
	if domain.PaymentMethod("crypto").Valid() {
		t.Fatal("unexpected valid payment method")
	}
}
