package validation_test

import (
	"errors"
	"math"
	"testing"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/validation"
)

func bannerProduct() domain.Product {
	return domain.Product{
		Slug:         "banner",
		PricingModel: domain.PricingModelTieredArea,
		MinWidthCm:   10,
		MaxWidthCm:   500,
		MinHeightCm:  10,
		MaxHeightCm:  300,
		Options:      []domain.OptionKind{domain.OptionWindHoles},
		Materials: []domain.Material{
			{ID: "frontlit"},
			{ID: "mesh"},
		},
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg, err := validation.Validate(bannerProduct(), domain.Configuration{WidthCm: 100, HeightCm: 100, Quantity: 2.7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quantity != 2 {
		t.Fatalf("expected quantity floored to 2, got %v", cfg.Quantity)
	}
	if cfg.MaterialID != "frontlit" {
		t.Fatalf("expected default material, got %q", cfg.MaterialID)
	}
	if cfg.Side != domain.SideSingle {
		t.Fatalf("expected single side, got %q", cfg.Side)
	}

	cfg, err = validation.Validate(bannerProduct(), domain.Configuration{WidthCm: 100, HeightCm: 100})
	if err != nil || cfg.Quantity != 1 {
		t.Fatalf("missing quantity must default to 1, got %v (%v)", cfg.Quantity, err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  domain.Configuration
		want error
	}{
		{"width below min", domain.Configuration{WidthCm: 5, HeightCm: 100}, domain.ErrInvalidConfiguration},
		{"height above max", domain.Configuration{WidthCm: 100, HeightCm: 301}, domain.ErrInvalidConfiguration},
		{"negative quantity", domain.Configuration{WidthCm: 100, HeightCm: 100, Quantity: -3}, domain.ErrInvalidConfiguration},
		{"fractional quantity below one", domain.Configuration{WidthCm: 100, HeightCm: 100, Quantity: 0.4}, domain.ErrInvalidConfiguration},
		{"unknown material", domain.Configuration{WidthCm: 100, HeightCm: 100, MaterialID: "silk"}, domain.ErrMaterialNotFound},
		{"unsupported option", domain.Configuration{WidthCm: 100, HeightCm: 100, Options: domain.Options{HemGrommets: true}}, domain.ErrInvalidConfiguration},
		{"double side unsupported", domain.Configuration{WidthCm: 100, HeightCm: 100, Side: domain.SideDouble}, domain.ErrInvalidConfiguration},
		{"unknown side", domain.Configuration{WidthCm: 100, HeightCm: 100, Side: "triple"}, domain.ErrInvalidConfiguration},
		{"unknown color", domain.Configuration{WidthCm: 100, HeightCm: 100, Color: "sepia"}, domain.ErrInvalidConfiguration},
		{"nan width", domain.Configuration{WidthCm: math.NaN(), HeightCm: 100}, domain.ErrMalformedInput},
		{"inf quantity", domain.Configuration{WidthCm: 100, HeightCm: 100, Quantity: math.Inf(1)}, domain.ErrMalformedInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validation.Validate(bannerProduct(), tc.cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var rejection *domain.RejectionError
			if !errors.As(err, &rejection) || rejection.Reason == "" {
				t.Fatalf("expected rejection with reason, got %#v", err)
			}
		})
	}
}

func TestValidateAcceptsSupportedDoubleSide(t *testing.T) {
	product := bannerProduct()
	product.DoubleSided = true
	cfg, err := validation.Validate(product, domain.Configuration{WidthCm: 100, HeightCm: 100, Side: domain.SideDouble})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Side != domain.SideDouble {
		t.Fatalf("side lost: %q", cfg.Side)
	}
}

func validCustomer() domain.Customer {
	return domain.Customer{
		FirstName: "Ana",
		LastName:  "Popescu",
		Email:     "ana@example.com",
		Phone:     "+40 722 123 456",
		BillingAddress: domain.Address{
			County:     "CJ",
			Locality:   "Cluj-Napoca",
			Street:     "Strada Memorandumului",
			Number:     "28",
			PostalCode: "400114",
		},
	}
}

func TestCheckoutNormalizes(t *testing.T) {
	customer, err := validation.Checkout(validCustomer(), domain.PaymentMethodCard, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.BillingAddress.Country != domain.DefaultCountry {
		t.Fatalf("expected default country, got %q", customer.BillingAddress.Country)
	}
	if customer.BillingAddress.Type != domain.AddressTypeBilling {
		t.Fatalf("expected billing type, got %q", customer.BillingAddress.Type)
	}
}

func TestCheckoutCollectsProblems(t *testing.T) {
	customer := validCustomer()
	customer.Email = "not-an-email"
	customer.FirstName = "A"
	customer.ShippingAddress = &domain.Address{County: "B", Locality: "Bucuresti", Street: "Lipscani", Number: "1", PostalCode: "12"}

	_, err := validation.Checkout(customer, "crypto", 0)
	if !errors.Is(err, domain.ErrInvalidCheckout) {
		t.Fatalf("expected ErrInvalidCheckout, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// пустая корзина, способ оплаты, имя, email, индекс доставки
	if len(verr.Problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(verr.Problems), verr.Problems)
	}
}

func TestCheckoutCompanyRequiresTaxID(t *testing.T) {
	customer := validCustomer()
	customer.CompanyName = "Tipo SRL"

	if _, err := validation.Checkout(customer, domain.PaymentMethodBankTransfer, 1); !errors.Is(err, domain.ErrInvalidCheckout) {
		t.Fatalf("expected validation error, got %v", err)
	}

	customer.CompanyTaxID = "RO123456"
	if _, err := validation.Checkout(customer, domain.PaymentMethodBankTransfer, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
