package domain

import (
	"context"
	"time"
)

// CatalogRepository: неизменяемый справочник продуктов, промокодов и регионов.
type CatalogRepository interface {
	// Product возвращает продукт по slug или ErrProductNotFound.
	Product(slug string) (Product, error)
	// Products возвращает все продукты в порядке каталога.
	Products() []Product
	// Coupon ищет промокод без учёта регистра или возвращает ErrCouponNotFound.
	Coupon(code string) (Coupon, error)
	// Region ищет регион доставки по коду округа.
	Region(code string) (Region, bool)
	// Localities возвращает населённые пункты страны.
	Localities(country string) []Locality
}

// Courier регистрирует отправление и возвращает AWB.
type Courier interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (Shipment, error)
}

// Invoicer выставляет счёт по заказу.
type Invoicer interface {
	IssueInvoice(ctx context.Context, req InvoiceRequest) (InvoiceReference, error)
}

// Notifier отправляет клиенту подтверждение заказа.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, n Notification) error
}

// Authenticator проверяет токен администратора.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	// Delete освобождает ключ, чтобы клиент мог повторить запрос.
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// CheckoutStage: именованный шаг оформления заказа, используется в метриках и логах.
type CheckoutStage string

const (
	StageValidate    CheckoutStage = "validate"
	StageIdempotency CheckoutStage = "idempotency"
	StagePersist     CheckoutStage = "persist"
	StageShipment    CheckoutStage = "shipment"
	StageInvoice     CheckoutStage = "invoice"
	StageNotify      CheckoutStage = "notify"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
