package domain

import "time"

// Типы событий заказа; совпадают с типами outbox-событий.
const (
	EventOrderCreated            = "order.created"
	EventOrderStatusChanged      = "order.status_changed"
	EventOrderShipmentRegistered = "order.shipment_registered"
	EventOrderInvoiced           = "order.invoiced"
	EventOrderDegraded           = "order.degraded"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string    `json:"orderId"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}
