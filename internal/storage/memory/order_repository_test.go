package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/storage/memory"
)

func newOrder(id string, created time.Time) domain.Order {
	return domain.Order{
		ID:            id,
		Number:        "PS-20260101-" + id,
		Customer:      domain.Customer{FirstName: "Ana", LastName: "Pop", Email: "ana@example.com"},
		PaymentMethod: domain.PaymentMethodCard,
		Status:        domain.OrderStatusPending,
		Currency:      domain.Currency,
		SubtotalMinor: 500,
		AmountMinor:   500,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductSlug: "banner", Qty: 5, PriceMinor: 100, CreatedAt: created},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	order := newOrder("order-1", time.Now().UTC())

	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected duplicate create to conflict, got %v", err)
	}

	stored, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Number != order.Number {
		t.Fatalf("expected number %s, got %s", order.Number, stored.Number)
	}

	// изменения копии не должны утекать в хранилище
	stored.Items[0].Qty = 99
	again, _ := repo.Get(ctx, order.ID)
	if again.Items[0].Qty != 5 {
		t.Fatalf("stored order mutated through returned copy")
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository()
	order := newOrder("order-1", time.Now().UTC())
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.AWBNumber = "AWB123"
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.AWBNumber != "AWB123" {
		t.Fatalf("expected awb AWB123, got %s", updated.AWBNumber)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}

	// устаревшая версия
	if err := repo.Save(ctx, stored); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}
