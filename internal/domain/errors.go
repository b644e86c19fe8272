package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибки ввода: некорректная или выходящая за границы конфигурация.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMalformedInput: нечисловые или неразборчивые значения во входных данных.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidCheckout: данные оформления заказа не прошли проверку схемы.
	ErrInvalidCheckout = errors.New("invalid checkout payload")
	// ErrInvalidOrderStatus: статус заказа вне закрытого перечисления.
	ErrInvalidOrderStatus = errors.New("invalid order status")
	// ErrUnknownPricingModel: у продукта указана неизвестная модель ценообразования.
	ErrUnknownPricingModel = errors.New("unknown pricing model")
	// ErrSessionRequired: запрос корзины без идентификатора сессии.
	ErrSessionRequired = errors.New("session id is required")
	// ErrItemsRequired: заказ или корзина без позиций.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrAmountNegative: отрицательная сумма заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// ErrItemQtyInvalid: количество позиции <= 0.
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// ErrItemPriceInvalid: отрицательная цена позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrAmountMismatch: итог заказа не совпадает с суммой позиций, доставки и скидки.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// ErrCustomerRequired: в заказе нет данных покупателя.
	ErrCustomerRequired = errors.New("customer email is required")
	// ErrCurrencyRequired: не указан код валюты.
	ErrCurrencyRequired = errors.New("currency is required")

	// ErrProductNotFound возвращается, если slug отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrMaterialNotFound возвращается, если материал не принадлежит продукту.
	ErrMaterialNotFound = errors.New("material not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartItemNotFound возвращается, если позиции нет в корзине.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrCouponNotFound возвращается для неизвестного промокода.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrInvalidStatusTransition: переход между статусами запрещён таблицей переходов.
	ErrInvalidStatusTransition = errors.New("order status transition is not allowed")
	// ErrCheckoutInProgress: запрос с тем же ключом идемпотентности ещё обрабатывается.
	ErrCheckoutInProgress = errors.New("checkout with the same idempotency key is in progress")

	// ErrCourierUnavailable: курьерская служба не зарегистрировала отправление.
	ErrCourierUnavailable = errors.New("courier unavailable")
	// ErrInvoicingUnavailable: сервис выставления счетов недоступен.
	ErrInvoicingUnavailable = errors.New("invoicing unavailable")
	// ErrNotificationFailed: уведомление клиенту не доставлено.
	ErrNotificationFailed = errors.New("notification failed")
	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrUnauthenticated: запрос без действительных учётных данных администратора.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// RejectionError описывает ожидаемый отказ валидатора или калькулятора.
// Оборачивает одну из sentinel-ошибок, поэтому работает с errors.Is.
type RejectionError struct {
	Kind   error
	Field  string
	Reason string
}

// Reject создаёт отказ для поля конфигурации.
func Reject(kind error, field, format string, args ...any) *RejectionError {
	return &RejectionError{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *RejectionError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

// ValidationError собирает все замечания к данным оформления заказа.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidCheckout.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCheckout
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ уже использован (в т.ч. с другим payload).
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// IsNotFound объединяет все not-found исходы домена.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrMaterialNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrCouponNotFound)
}

// IsValidation объединяет ошибки, которые клиент может исправить сам.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidCheckout) ||
		errors.Is(err, ErrInvalidOrderStatus) ||
		errors.Is(err, ErrSessionRequired)
}

// IsConflict объединяет конфликты: дубликаты ключей, гонки версий, запрещённые переходы.
func IsConflict(err error) bool {
	return IsIdempotencyConflict(err) ||
		errors.Is(err, ErrCheckoutInProgress) ||
		errors.Is(err, ErrOrderVersionConflict) ||
		errors.Is(err, ErrInvalidStatusTransition)
}
