package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus описывает жизненный цикл заказа типографии.
type OrderStatus string

const (
	// OrderStatusPending: заказ создан и ждёт оплаты или запуска в производство.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid: оплата подтверждена (или заказ с наложенным платежом).
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusInProgress: заказ печатается.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusFulfilled: заказ передан клиенту, конечный статус.
	OrderStatusFulfilled OrderStatus = "fulfilled"
	// OrderStatusCanceled: заказ отменён, конечный статус.
	OrderStatusCanceled OrderStatus = "canceled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusInProgress, OrderStatusCanceled},
	OrderStatusPaid:       {OrderStatusInProgress, OrderStatusFulfilled, OrderStatusCanceled},
	OrderStatusInProgress: {OrderStatusFulfilled, OrderStatusCanceled},
	OrderStatusFulfilled:  nil,
	OrderStatusCanceled:   nil,
}

// ParseOrderStatus приводит строку к статусу из закрытого перечисления.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, raw)
	}
	return status, nil
}

// Valid проверяет, что статус известен.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition проверяет переход по таблице. Переход в тот же статус всегда разрешён.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod: способ оплаты, выбранный при оформлении.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid проверяет способ оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// InitialStatus возвращает статус, с которого стартует заказ.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentMethodCashOnDelivery {
		return OrderStatusPaid
	}
	return OrderStatusPending
}

// AddressType различает адрес доставки и адрес для счёта.
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

// DefaultCountry используется, если страна в адресе не указана.
const DefaultCountry = "RO"

// Address: почтовый адрес клиента.
type Address struct {
	County     string
	Locality   string
	Street     string
	Number     string
	PostalCode string
	Building   string
	Entrance   string
	Floor      string
	Apartment  string
	Intercom   string
	Country    string
	IsDefault  bool
	Type       AddressType
}

// Customer: снимок данных покупателя на момент оформления.
type Customer struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	CompanyName     string
	CompanyTaxID    string
	CompanyRegNo    string
	BillingAddress  Address
	ShippingAddress *Address
}

// FullName склеивает имя и фамилию.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// DeliveryAddress возвращает адрес доставки, а при его отсутствии адрес для счёта.
func (c Customer) DeliveryAddress() Address {
	if c.ShippingAddress != nil {
		return *c.ShippingAddress
	}
	return c.BillingAddress
}

// OrderItem: снимок позиции корзины в заказе.
type OrderItem struct {
	ID           string
	ProductSlug  string
	ProductTitle string
	Qty          int32
	// PriceMinor: цена за единицу в минимальных единицах (бани).
	PriceMinor int64
	// AreaSqm нужна для расчёта веса отправления.
	AreaSqm       float64
	Configuration Configuration
	CreatedAt     time.Time
}

// TotalMinor возвращает стоимость позиции.
func (i OrderItem) TotalMinor() int64 {
	return int64(i.Qty) * i.PriceMinor
}

// Order агрегирует состояние заказа, его позиции и ссылки на отправление и счёт.
type Order struct {
	ID            string
	Number        string
	Customer      Customer
	PaymentMethod PaymentMethod
	Status        OrderStatus
	Currency      string
	SubtotalMinor int64
	ShippingMinor int64
	DiscountMinor int64
	AmountMinor   int64
	Items         []OrderItem
	AWBNumber     string
	AWBCarrier    string
	InvoiceID     string
	InvoiceURL    string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CanceledAt    *time.Time
	FulfilledAt   *time.Time
}

// Transition переводит заказ в новый статус по таблице переходов.
// Возвращает true, если статус действительно изменился.
func (o *Order) Transition(to OrderStatus, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, to)
	}
	if o.Status == to {
		return false, nil
	}
	if !o.Status.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	switch to {
	case OrderStatusCanceled:
		o.CanceledAt = &now
	case OrderStatusFulfilled:
		o.FulfilledAt = &now
	}
	return true, nil
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Customer.Email == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrInvalidOrderStatus)
	}

	// Итог = позиции + доставка - скидка.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += item.TotalMinor()
	}
	if calc != o.SubtotalMinor || calc+o.ShippingMinor-o.DiscountMinor != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
