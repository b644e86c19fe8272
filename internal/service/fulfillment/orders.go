package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// OrderView: заказ вместе с историей событий.
type OrderView struct {
	Order    domain.Order
	Timeline []domain.TimelineEvent
}

// GetOrder возвращает заказ и его timeline.
func (s *Service) GetOrder(ctx context.Context, id string) (OrderView, error) {
	order, err := s.orders.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return OrderView{}, err
	}
	view := OrderView{Order: order, Timeline: []domain.TimelineEvent{}}
	if s.timeline == nil {
		return view, nil
	}
	events, err := s.timeline.List(ctx, order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to list timeline events")
		return view, nil
	}
	view.Timeline = events
	return view, nil
}

// UpdateStatus переводит заказ в новый статус. Повторный перевод в текущий
// статус успешен и ничего не меняет; неизвестный статус отклоняется.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrInvalidOrderStatus, status)
	}

	changed := false
	order, err := s.mutate(ctx, id, func(o *domain.Order) (bool, error) {
		var err error
		changed, err = o.Transition(status, s.now())
		return changed, err
	})
	if err != nil {
		return domain.Order{}, err
	}
	if changed {
		s.recordEvent(ctx, &order, domain.EventOrderStatusChanged, string(status))
		s.metrics.RecordStatusChange(string(status))
		s.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"status":   status,
		}).Info("order status changed")
	}
	return order, nil
}

// AttachTracking сохраняет AWB, полученный вне оформления. Пустой перевозчик
// заменяется перевозчиком по умолчанию.
func (s *Service) AttachTracking(ctx context.Context, id, awb, carrier string) (domain.Order, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return domain.Order{}, &domain.ValidationError{Problems: []string{"awbNumber is required"}}
	}
	carrier = strings.TrimSpace(carrier)
	if carrier == "" {
		carrier = domain.DefaultCarrier
	}

	order, err := s.mutate(ctx, id, func(o *domain.Order) (bool, error) {
		if o.AWBNumber == awb && o.AWBCarrier == carrier {
			return false, nil
		}
		o.AWBNumber = awb
		o.AWBCarrier = carrier
		o.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.recordEvent(ctx, &order, domain.EventOrderShipmentRegistered, awb)
	return order, nil
}

// mutate читает заказ, применяет изменение и сохраняет с optimistic locking.
// При конфликте версий чтение и изменение повторяются.
func (s *Service) mutate(ctx context.Context, id string, apply func(*domain.Order) (bool, error)) (domain.Order, error) {
	id = strings.TrimSpace(id)
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		order, err := s.orders.Get(ctx, id)
		if err != nil {
			return domain.Order{}, err
		}
		changed, err := apply(&order)
		if err != nil {
			return domain.Order{}, err
		}
		if !changed {
			return order, nil
		}
		err = s.orders.Save(ctx, order)
		if err == nil {
			order.Version++
			return order, nil
		}
		if !domain.IsVersionConflict(err) {
			return domain.Order{}, fmt.Errorf("save order %s: %w", id, err)
		}
		lastErr = err
		s.logger.WithField("order_id", id).WithField("attempt", attempt+1).Debug("order version conflict, retrying")
	}
	return domain.Order{}, fmt.Errorf("save order %s: %w", id, lastErr)
}

type orderEvent struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	AmountMinor int64              `json:"amountMinor"`
	Currency    string             `json:"currency"`
	AWBNumber   string             `json:"awbNumber,omitempty"`
	InvoiceID   string             `json:"invoiceId,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// recordEvent пишет событие в timeline и outbox. Сбой записи логируется и не
// прерывает операцию: заказ уже сохранён.
func (s *Service) recordEvent(ctx context.Context, order *domain.Order, eventType, reason string) {
	now := s.now()
	entry := s.logger.WithFields(log.Fields{"order_id": order.ID, "event": eventType})

	if s.timeline != nil {
		err := s.timeline.Append(ctx, domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   reason,
			Occurred: now,
		})
		if err != nil {
			entry.WithError(err).Warn("failed to append timeline event")
		} else {
			s.metrics.RecordTimelineEvent(eventType)
		}
	}

	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(orderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		AWBNumber:   order.AWBNumber,
		InvoiceID:   order.InvoiceID,
		Reason:      reason,
		OccurredAt:  now,
	})
	if err != nil {
		entry.WithError(err).Warn("failed to encode outbox event")
		return
	}
	if _, err := s.outbox.Enqueue(ctx, domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: aggregateTypeOrder,
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		entry.WithError(err).Warn("failed to enqueue outbox event")
	}
}
