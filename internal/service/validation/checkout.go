package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

var (
	roPostalCode = regexp.MustCompile(`^\d{6}$`)
	phoneDigits  = regexp.MustCompile(`^\+?[0-9 ()\-.]{10,20}$`)
)

// Checkout проверяет покупателя, адреса и способ оплаты. Все замечания собираются
// в один *domain.ValidationError; при успехе возвращается нормализованный покупатель.
func Checkout(customer domain.Customer, method domain.PaymentMethod, itemCount int) (domain.Customer, error) {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if itemCount == 0 {
		add("cart is empty")
	}
	if !method.Valid() {
		add("paymentMethod %q is not supported", method)
	}

	customer.FirstName = strings.TrimSpace(customer.FirstName)
	customer.LastName = strings.TrimSpace(customer.LastName)
	customer.Email = strings.TrimSpace(customer.Email)
	customer.Phone = strings.TrimSpace(customer.Phone)

	if utf8.RuneCountInString(customer.FirstName) < 2 {
		add("firstName must have at least 2 characters")
	}
	if utf8.RuneCountInString(customer.LastName) < 2 {
		add("lastName must have at least 2 characters")
	}
	if customer.Email == "" {
		add("email is required")
	} else if addr, err := mail.ParseAddress(customer.Email); err != nil || addr.Address != customer.Email {
		add("email is invalid")
	}
	if !phoneDigits.MatchString(customer.Phone) {
		add("phone is invalid")
	}
	if strings.TrimSpace(customer.CompanyName) != "" && strings.TrimSpace(customer.CompanyTaxID) == "" {
		add("companyTaxId is required for company orders")
	}

	customer.BillingAddress = normalizeAddress(customer.BillingAddress, domain.AddressTypeBilling)
	for _, p := range addressProblems("billing", customer.BillingAddress) {
		add("%s", p)
	}
	if customer.ShippingAddress != nil {
		shipping := normalizeAddress(*customer.ShippingAddress, domain.AddressTypeShipping)
		customer.ShippingAddress = &shipping
		for _, p := range addressProblems("shipping", shipping) {
			add("%s", p)
		}
	}

	if len(problems) > 0 {
		return domain.Customer{}, &domain.ValidationError{Problems: problems}
	}
	return customer, nil
}

func normalizeAddress(a domain.Address, kind domain.AddressType) domain.Address {
	a.County = strings.TrimSpace(a.County)
	a.Locality = strings.TrimSpace(a.Locality)
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = domain.DefaultCountry
	}
	if a.Type == "" {
		a.Type = kind
	}
	return a
}

func addressProblems(prefix string, a domain.Address) []string {
	var out []string
	if a.County == "" {
		out = append(out, prefix+".county is required")
	}
	if utf8.RuneCountInString(a.Locality) < 2 {
		out = append(out, prefix+".locality must have at least 2 characters")
	}
	if utf8.RuneCountInString(a.Street) < 2 {
		out = append(out, prefix+".street must have at least 2 characters")
	}
	if a.Number == "" {
		out = append(out, prefix+".number is required")
	}
	switch {
	case a.PostalCode == "":
		out = append(out, prefix+".postalCode is required")
	case a.Country == domain.DefaultCountry && !roPostalCode.MatchString(a.PostalCode):
		out = append(out, prefix+".postalCode must have 6 digits")
	}
	if a.Type != domain.AddressTypeShipping && a.Type != domain.AddressTypeBilling {
		out = append(out, prefix+".type is invalid")
	}
	return out
}
