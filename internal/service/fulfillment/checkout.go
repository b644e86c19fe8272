package fulfillment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/courier"
	"github.com/vladislavdragonenkov/printshop/internal/service/validation"
)

// StageStatus: исход шага оформления.
type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
	StageSkipped  StageStatus = "skipped"
)

// StageResult: исход одного шага оформления.
type StageResult struct {
	Stage  domain.CheckoutStage `json:"stage"`
	Status StageStatus          `json:"status"`
}

// CheckoutRequest: данные оформления заказа.
type CheckoutRequest struct {
	IdempotencyKey string
	Cart           domain.Cart
	Customer       domain.Customer
	PaymentMethod  domain.PaymentMethod
}

// CheckoutResult: итог оформления. Degraded означает, что заказ сохранён,
// но отправление, счёт или уведомление не удалось оформить.
type CheckoutResult struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	AmountMinor int64              `json:"amountMinor"`
	Currency    string             `json:"currency"`
	InvoiceURL  string             `json:"invoiceUrl,omitempty"`
	AWBNumber   string             `json:"awbNumber,omitempty"`
	Degraded    bool               `json:"degraded"`
	Stages      []StageResult      `json:"stages"`
	// Replayed выставляется, когда результат взят из кэша идемпотентности.
	Replayed bool `json:"-"`
}

// FulfillOrder оформляет корзину в заказ.
//
// Ошибки validate возвращаются как *domain.ValidationError до любых побочных эффектов.
// Повтор с тем же ключом и тем же содержимым возвращает сохранённый результат.
// Сбой persist освобождает ключ идемпотентности и ничего не сохраняет.
func (s *Service) FulfillOrder(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	start := time.Now()
	s.metrics.CheckoutStarted()
	outcome := "failed"
	defer func() { s.metrics.CheckoutFinished(outcome, time.Since(start)) }()

	var stages []StageResult

	key := strings.TrimSpace(req.IdempotencyKey)
	hash, err := requestHash(req)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("hash checkout request: %w", err)
	}
	// Корзина очищается после оформления, поэтому повтор проверяется до валидации.
	if key != "" {
		if result, found, replayErr := s.lookupPrevious(ctx, key, hash); found {
			outcome = replayOutcome(replayErr)
			return result, replayErr
		}
	}

	// validate
	stageStart := time.Now()
	customer, err := validation.Checkout(req.Customer, req.PaymentMethod, len(req.Cart.Items))
	if err != nil {
		outcome = "rejected"
		s.metrics.RecordStage(string(domain.StageValidate), "rejected", time.Since(stageStart))
		return CheckoutResult{}, err
	}
	stages = s.stageDone(stages, domain.StageValidate, StageOK, stageStart)

	// idempotency
	stageStart = time.Now()
	if key == "" {
		outcome = "rejected"
		s.metrics.RecordStage(string(domain.StageIdempotency), "rejected", time.Since(stageStart))
		return CheckoutResult{}, &domain.ValidationError{Problems: []string{"Idempotency-Key header is required"}}
	}
	record, err := s.idempotency.CreateProcessing(ctx, key, hash, s.now().Add(s.idemTTL))
	if err != nil {
		s.metrics.RecordStage(string(domain.StageIdempotency), "conflict", time.Since(stageStart))
		result, replayErr := s.replay(record, err)
		outcome = replayOutcome(replayErr)
		return result, replayErr
	}
	stages = s.stageDone(stages, domain.StageIdempotency, StageOK, stageStart)

	entry := s.logger.WithField("idempotency_key", key)

	// persist
	stageStart = time.Now()
	order, err := s.buildOrder(customer, req.PaymentMethod, req.Cart)
	if err == nil {
		err = s.orders.Create(ctx, order)
	}
	if err != nil {
		s.metrics.RecordStage(string(domain.StagePersist), "failed", time.Since(stageStart))
		// Ключ освобождается с не отменяемым контекстом, иначе клиент не сможет повторить запрос.
		if relErr := s.idempotency.Delete(context.WithoutCancel(ctx), key); relErr != nil {
			entry.WithError(relErr).Warn("failed to release idempotency key")
		}
		entry.WithError(err).Error("order persistence failed")
		return CheckoutResult{}, fmt.Errorf("persist order: %w", err)
	}
	stages = s.stageDone(stages, domain.StagePersist, StageOK, stageStart)
	entry = entry.WithFields(log.Fields{"order_id": order.ID, "order_number": order.Number})

	// После persist заказ обязан дойти до конца, даже если клиент отключился.
	ctx = context.WithoutCancel(ctx)
	s.recordEvent(ctx, &order, domain.EventOrderCreated, "")
	s.recordEvent(ctx, &order, domain.EventOrderStatusChanged, string(order.Status))
	s.metrics.RecordStatusChange(string(order.Status))

	degraded := false
	for _, step := range []struct {
		stage domain.CheckoutStage
		run   func(context.Context, *domain.Order) (StageStatus, error)
	}{
		{domain.StageShipment, s.registerShipment},
		{domain.StageInvoice, s.issueInvoice},
		{domain.StageNotify, s.notify},
	} {
		stageStart = time.Now()
		stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
		status, stepErr := step.run(stageCtx, &order)
		cancel()
		if stepErr != nil {
			degraded = true
			entry.WithError(stepErr).WithField("stage", step.stage).Warn("checkout stage degraded")
			s.recordEvent(ctx, &order, domain.EventOrderDegraded, string(step.stage))
		}
		stages = s.stageDone(stages, step.stage, status, stageStart)
	}

	result := CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		InvoiceURL:  order.InvoiceURL,
		AWBNumber:   order.AWBNumber,
		Degraded:    degraded,
		Stages:      stages,
	}

	if body, err := json.Marshal(result); err != nil {
		entry.WithError(err).Warn("failed to encode checkout result for idempotency cache")
	} else if err := s.idempotency.MarkDone(ctx, key, body, http.StatusCreated); err != nil {
		entry.WithError(err).Warn("failed to store checkout result")
	}

	outcome = "completed"
	if degraded {
		outcome = "degraded"
	}
	entry.WithFields(log.Fields{
		"amount_minor": order.AmountMinor,
		"degraded":     degraded,
	}).Info("order checked out")
	return result, nil
}

func (s *Service) stageDone(stages []StageResult, stage domain.CheckoutStage, status StageStatus, start time.Time) []StageResult {
	s.metrics.RecordStage(string(stage), string(status), time.Since(start))
	return append(stages, StageResult{Stage: stage, Status: status})
}

// lookupPrevious ищет живую запись по ключу. found=false означает, что запрос
// обрабатывается впервые или запись уже истекла.
func (s *Service) lookupPrevious(ctx context.Context, key, hash string) (CheckoutResult, bool, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			s.logger.WithError(err).WithField("idempotency_key", key).Warn("idempotency lookup failed")
		}
		return CheckoutResult{}, false, nil
	}
	if !record.TTLAt.IsZero() && !s.now().Before(record.TTLAt) {
		return CheckoutResult{}, false, nil
	}
	if record.RequestHash != hash {
		return CheckoutResult{}, true, domain.ErrIdempotencyHashMismatch
	}
	result, replayErr := s.replay(record, domain.ErrIdempotencyKeyAlreadyExists)
	return result, true, replayErr
}

func replayOutcome(err error) string {
	switch {
	case err == nil:
		return "replayed"
	case domain.IsConflict(err):
		return "rejected"
	default:
		return "failed"
	}
}

func (s *Service) replay(record domain.IdempotencyRecord, createErr error) (CheckoutResult, error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return CheckoutResult{}, createErr
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone:
			var result CheckoutResult
			if err := json.Unmarshal(record.ResponseBody, &result); err != nil {
				return CheckoutResult{}, fmt.Errorf("decode cached checkout result: %w", err)
			}
			result.Replayed = true
			return result, nil
		case domain.IdempotencyStatusProcessing:
			return CheckoutResult{}, domain.ErrCheckoutInProgress
		default:
			return CheckoutResult{}, fmt.Errorf("unexpected idempotency record status %q", record.Status)
		}
	default:
		return CheckoutResult{}, fmt.Errorf("register idempotency key: %w", createErr)
	}
}

func (s *Service) buildOrder(customer domain.Customer, method domain.PaymentMethod, cart domain.Cart) (domain.Order, error) {
	now := s.now()
	totals := s.totals.Totals(cart, customer.DeliveryAddress().County)

	order := domain.Order{
		ID:            uuid.NewString(),
		Number:        orderNumber(now),
		Customer:      customer,
		PaymentMethod: method,
		Status:        method.InitialStatus(),
		Currency:      domain.Currency,
		Items:         make([]domain.OrderItem, 0, len(cart.Items)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, line := range cart.Items {
		item := domain.OrderItem{
			ID:            uuid.NewString(),
			ProductSlug:   line.ProductSlug,
			ProductTitle:  line.ProductTitle,
			Qty:           line.Quantity,
			PriceMinor:    domain.ToMinor(line.UnitAmount),
			AreaSqm:       line.Configuration.AreaSqm(),
			Configuration: line.Configuration,
			CreatedAt:     now,
		}
		order.Items = append(order.Items, item)
		order.SubtotalMinor += item.TotalMinor()
	}
	order.ShippingMinor = domain.ToMinor(totals.Shipping)
	order.DiscountMinor = min(domain.ToMinor(totals.Discount), order.SubtotalMinor)
	order.AmountMinor = order.SubtotalMinor + order.ShippingMinor - order.DiscountMinor

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, fmt.Errorf("order invariants violated: %w", errors.Join(errs...))
	}
	return order, nil
}

func (s *Service) registerShipment(ctx context.Context, order *domain.Order) (StageStatus, error) {
	if s.courier == nil {
		return StageSkipped, nil
	}
	address := order.Customer.DeliveryAddress()
	recipient := order.Customer.FullName()
	if order.Customer.CompanyName != "" {
		recipient = order.Customer.CompanyName
	}
	req := domain.ShipmentRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Recipient:   recipient,
		Phone:       order.Customer.Phone,
		Email:       order.Customer.Email,
		Address:     address,
		WeightKg:    courier.WeightKg(order.Items, s.weightPerSqm),
		Parcels:     1,
		Currency:    order.Currency,
	}
	if order.PaymentMethod == domain.PaymentMethodCashOnDelivery {
		req.CODAmountMinor = order.AmountMinor
	}

	shipment, err := s.courier.CreateShipment(ctx, req)
	if err != nil {
		return StageDegraded, err
	}
	if shipment.Carrier == "" {
		shipment.Carrier = domain.DefaultCarrier
	}
	updated, err := s.mutate(ctx, order.ID, func(o *domain.Order) (bool, error) {
		o.AWBNumber = shipment.AWBNumber
		o.AWBCarrier = shipment.Carrier
		o.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return StageDegraded, fmt.Errorf("save awb %s: %w", shipment.AWBNumber, err)
	}
	*order = updated
	s.recordEvent(ctx, order, domain.EventOrderShipmentRegistered, shipment.AWBNumber)
	return StageOK, nil
}

func (s *Service) issueInvoice(ctx context.Context, order *domain.Order) (StageStatus, error) {
	if s.invoicer == nil {
		return StageSkipped, nil
	}
	ref, err := s.invoicer.IssueInvoice(ctx, domain.InvoiceRequest{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Customer:    order.Customer,
		Items:       order.Items,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
	})
	if err != nil {
		return StageDegraded, err
	}
	updated, err := s.mutate(ctx, order.ID, func(o *domain.Order) (bool, error) {
		o.InvoiceID = ref.ID
		o.InvoiceURL = ref.URL
		o.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return StageDegraded, fmt.Errorf("save invoice %s: %w", ref.ID, err)
	}
	*order = updated
	s.recordEvent(ctx, order, domain.EventOrderInvoiced, ref.ID)
	return StageOK, nil
}

func (s *Service) notify(ctx context.Context, order *domain.Order) (StageStatus, error) {
	if s.notifier == nil {
		return StageSkipped, nil
	}
	err := s.notifier.NotifyOrderConfirmed(ctx, domain.Notification{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		To:          order.Customer.Email,
		Name:        order.Customer.FullName(),
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		InvoiceURL:  order.InvoiceURL,
		AWBNumber:   order.AWBNumber,
	})
	if err != nil {
		return StageDegraded, err
	}
	return StageOK, nil
}

// orderNumber строит человекочитаемый номер PS-YYYYMMDD-XXXXXX.
func orderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PS-%s-%s", now.Format("20060102"), suffix)
}

type hashPayload struct {
	Customer domain.Customer      `json:"customer"`
	Method   domain.PaymentMethod `json:"method"`
	Session  string               `json:"session"`
}

// requestHash описывает запрос оформления: покупатель, способ оплаты и сессия корзины.
// Строки корзины не входят в хэш, потому что после оформления корзина очищается.
func requestHash(req CheckoutRequest) (string, error) {
	data, err := json.Marshal(hashPayload{
		Customer: req.Customer,
		Method:   req.PaymentMethod,
		Session:  req.Cart.SessionID,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
