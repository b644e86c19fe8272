package retry

import (
	"context"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// Policy объединяет повторы и breaker для одного исполнителя. Breaker может быть nil.
type Policy struct {
	Retrier *Retrier
	Breaker *CircuitBreaker
}

func (p Policy) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	call := fn
	if p.Breaker != nil {
		call = func(ctx context.Context) error {
			return p.Breaker.Execute(operation, func() error { return fn(ctx) })
		}
	}
	if p.Retrier == nil {
		return call(ctx)
	}
	return p.Retrier.Do(ctx, operation, call)
}

type courier struct {
	next   domain.Courier
	policy Policy
}

// Courier оборачивает курьерскую службу.
func Courier(next domain.Courier, policy Policy) domain.Courier {
	return &courier{next: next, policy: policy}
}

func (c *courier) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (domain.Shipment, error) {
	var out domain.Shipment
	err := c.policy.run(ctx, "courier.create_shipment", func(ctx context.Context) error {
		var err error
		out, err = c.next.CreateShipment(ctx, req)
		return err
	})
	return out, err
}

type invoicer struct {
	next   domain.Invoicer
	policy Policy
}

// Invoicer оборачивает сервис выставления счетов.
func Invoicer(next domain.Invoicer, policy Policy) domain.Invoicer {
	return &invoicer{next: next, policy: policy}
}

func (i *invoicer) IssueInvoice(ctx context.Context, req domain.InvoiceRequest) (domain.InvoiceReference, error) {
	var out domain.InvoiceReference
	err := i.policy.run(ctx, "invoicing.issue_invoice", func(ctx context.Context) error {
		var err error
		out, err = i.next.IssueInvoice(ctx, req)
		return err
	})
	return out, err
}

type notifier struct {
	next   domain.Notifier
	policy Policy
}

// Notifier оборачивает отправку уведомлений.
func Notifier(next domain.Notifier, policy Policy) domain.Notifier {
	return &notifier{next: next, policy: policy}
}

func (n *notifier) NotifyOrderConfirmed(ctx context.Context, msg domain.Notification) error {
	return n.policy.run(ctx, "notification.order_confirmed", func(ctx context.Context) error {
		return n.next.NotifyOrderConfirmed(ctx, msg)
	})
}
