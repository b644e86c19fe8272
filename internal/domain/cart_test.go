package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

func TestFingerprint(t *testing.T) {
	base := domain.Configuration{WidthCm: 100, HeightCm: 50, Quantity: 1, MaterialID: "frontlit", Side: domain.SideSingle}

	sameQty := base
	sameQty.Quantity = 7
	if domain.Fingerprint("banner", base) != domain.Fingerprint("banner", sameQty) {
		t.Fatal("quantity must not affect fingerprint")
	}

	withOption := base
	withOption.Options.WindHoles = true
	if domain.Fingerprint("banner", base) == domain.Fingerprint("banner", withOption) {
		t.Fatal("options must affect fingerprint")
	}

	if domain.Fingerprint("banner", base) == domain.Fingerprint("canvas", base) {
		t.Fatal("product must affect fingerprint")
	}
}

func TestCartItemSetQuantity(t *testing.T) {
	item := domain.CartItem{UnitAmount: decimal.RequireFromString("12.35"), Quantity: 1}
	item.SetQuantity(3)

	if !item.TotalAmount.Equal(decimal.RequireFromString("37.05")) {
		t.Fatalf("expected total 37.05, got %s", item.TotalAmount)
	}
	if item.Configuration.Quantity != 3 {
		t.Fatalf("configuration quantity not synced: %v", item.Configuration.Quantity)
	}
}

func TestCouponDiscount(t *testing.T) {
	subtotal := decimal.NewFromInt(200)
	cases := []struct {
		name   string
		coupon domain.Coupon
		want   string
	}{
		{"percentage", domain.Coupon{Type: domain.CouponTypePercentage, Value: decimal.NewFromInt(10)}, "20"},
		{"fixed", domain.Coupon{Type: domain.CouponTypeFixed, Value: decimal.NewFromInt(50)}, "50"},
		{"fixed capped", domain.Coupon{Type: domain.CouponTypeFixed, Value: decimal.NewFromInt(500)}, "200"},
		{"unknown type", domain.Coupon{Type: "bogus", Value: decimal.NewFromInt(5)}, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.coupon.Discount(subtotal)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("discount = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMinorConversion(t *testing.T) {
	if got := domain.ToMinor(decimal.RequireFromString("130.005")); got != 13001 {
		t.Fatalf("expected half-up 13001, got %d", got)
	}
	if got := domain.FromMinor(38400); !got.Equal(decimal.NewFromInt(384)) {
		t.Fatalf("expected 384, got %s", got)
	}
}
