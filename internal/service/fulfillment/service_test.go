package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/printshop/internal/catalog"
	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/metrics"
	"github.com/vladislavdragonenkov/printshop/internal/service/cart"
	"github.com/vladislavdragonenkov/printshop/internal/service/courier"
	"github.com/vladislavdragonenkov/printshop/internal/service/invoicing"
	"github.com/vladislavdragonenkov/printshop/internal/service/pricing"
	"github.com/vladislavdragonenkov/printshop/internal/service/shipping"
	"github.com/vladislavdragonenkov/printshop/internal/storage/memory"
)

type fixture struct {
	svc      *Service
	carts    *cart.Service
	orders   domain.OrderRepository
	idem     domain.IdempotencyRepository
	timeline domain.TimelineRepository
	outbox   *memory.OutboxRepository
	courier  *courier.MockService
	invoicer *invoicing.MockService
	notifier *stubNotifier
}

func newFixture(t *testing.T, mutators ...func(*Dependencies)) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{
		orders:   memory.NewOrderRepository(),
		idem:     memory.NewIdempotencyRepository(),
		timeline: memory.NewTimelineRepository(),
		outbox:   memory.NewOutboxRepository(),
		courier:  courier.NewMockService(),
		invoicer: invoicing.NewMockService("https://invoices.test"),
		notifier: &stubNotifier{},
	}
	f.carts = cart.NewService(cat, pricing.NewCalculator(), shipping.NewEstimator(cat), memory.NewCartRepository(), nil)

	deps := Dependencies{
		Orders:      f.orders,
		Idempotency: f.idem,
		Timeline:    f.timeline,
		Outbox:      f.outbox,
		Catalog:     cat,
		Totals:      f.carts,
		Courier:     f.courier,
		Invoicer:    f.invoicer,
		Notifier:    f.notifier,
	}
	for _, m := range mutators {
		m(&deps)
	}

	f.svc, err = NewService(deps, WithMetrics(metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())))
	require.NoError(t, err)
	return f
}

func (f *fixture) bannerCart(t *testing.T, session string, qty float64) domain.Cart {
	t.Helper()
	c, err := f.carts.AddItem(context.Background(), session, "banner", domain.Configuration{
		WidthCm:    100,
		HeightCm:   100,
		Quantity:   qty,
		MaterialID: "frontlit-510",
		Options:    domain.Options{WindHoles: true, HemGrommets: true},
	})
	require.NoError(t, err)
	return c
}

func validCustomer() domain.Customer {
	return domain.Customer{
		FirstName: "Ana",
		LastName:  "Popescu",
		Email:     "ana@example.com",
		Phone:     "+40 721 000 000",
		BillingAddress: domain.Address{
			County:     "CJ",
			Locality:   "Cluj-Napoca",
			Street:     "Strada Memorandumului",
			Number:     "28",
			PostalCode: "400114",
		},
	}
}

func checkoutRequest(key string, c domain.Cart) CheckoutRequest {
	return CheckoutRequest{
		IdempotencyKey: key,
		Cart:           c,
		Customer:       validCustomer(),
		PaymentMethod:  domain.PaymentMethodCard,
	}
}

func TestFulfillOrder_Completed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-1", f.bannerCart(t, "s1", 1)))
	require.NoError(t, err)

	require.False(t, result.Degraded)
	require.False(t, result.Replayed)
	require.Equal(t, domain.OrderStatusPending, result.Status)
	require.Regexp(t, `^PS-\d{8}-[0-9A-F]{6}$`, result.OrderNumber)
	// 130.00 за баннер + 20.00 доставка в CJ.
	require.Equal(t, int64(15000), result.AmountMinor)
	require.NotEmpty(t, result.AWBNumber)
	require.Contains(t, result.InvoiceURL, "https://invoices.test/")
	require.Len(t, result.Stages, 6)
	for _, stage := range result.Stages {
		require.Equal(t, StageOK, stage.Status, "stage %s", stage.Stage)
	}

	order, err := f.orders.Get(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, result.AWBNumber, order.AWBNumber)
	require.Equal(t, domain.DefaultCarrier, order.AWBCarrier)
	require.NotEmpty(t, order.InvoiceID)
	require.Equal(t, int64(2), order.Version)
	require.Empty(t, order.ValidateInvariants())

	events, err := f.timeline.List(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, []string{
		domain.EventOrderCreated,
		domain.EventOrderStatusChanged,
		domain.EventOrderShipmentRegistered,
		domain.EventOrderInvoiced,
	}, eventTypes(events))
	require.Len(t, f.outbox.AllPending(), 4)

	require.Equal(t, 1, f.notifier.calls())
	require.Equal(t, result.InvoiceURL, f.notifier.last().InvoiceURL)

	record, err := f.idem.Get(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, record.Status)
}

func TestFulfillOrder_ShippingByCountyName(t *testing.T) {
	f := newFixture(t)
	req := checkoutRequest("key-county", f.bannerCart(t, "s-county", 1))
	req.Customer.BillingAddress.County = "Cluj"

	result, err := f.svc.FulfillOrder(context.Background(), req)
	require.NoError(t, err)
	// Тот же тариф, что и для кода CJ: 130.00 + 20.00.
	require.Equal(t, int64(15000), result.AmountMinor)
}

func TestFulfillOrder_ShipmentFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.courier.Err = errors.New("dpd timeout")
	ctx := context.Background()

	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-2", f.bannerCart(t, "s2", 1)))
	require.NoError(t, err)

	require.True(t, result.Degraded)
	require.Empty(t, result.AWBNumber)
	require.NotEmpty(t, result.InvoiceURL)
	require.Equal(t, StageResult{Stage: domain.StageShipment, Status: StageDegraded}, result.Stages[3])

	order, err := f.orders.Get(ctx, result.OrderID)
	require.NoError(t, err)
	require.Empty(t, order.AWBNumber)

	events, err := f.timeline.List(ctx, result.OrderID)
	require.NoError(t, err)
	require.Contains(t, eventTypes(events), domain.EventOrderDegraded)
	require.Equal(t, 1, f.notifier.calls())
}

func TestFulfillOrder_InvoiceFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.invoicer.Err = errors.New("smartbill 503")
	ctx := context.Background()

	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-i", f.bannerCart(t, "si", 1)))
	require.NoError(t, err)

	require.True(t, result.Degraded)
	require.NotEmpty(t, result.AWBNumber)
	require.Empty(t, result.InvoiceURL)
	require.Equal(t, StageResult{Stage: domain.StageInvoice, Status: StageDegraded}, result.Stages[4])
	require.Equal(t, StageOK, result.Stages[5].Status)

	order, err := f.orders.Get(ctx, result.OrderID)
	require.NoError(t, err)
	require.Empty(t, order.InvoiceID)
	require.Empty(t, order.InvoiceURL)
	require.Equal(t, result.AWBNumber, order.AWBNumber)

	require.Equal(t, 1, f.notifier.calls())
	require.Empty(t, f.notifier.last().InvoiceURL)

	events, err := f.timeline.List(ctx, result.OrderID)
	require.NoError(t, err)
	require.Contains(t, eventTypes(events), domain.EventOrderDegraded)
	require.NotContains(t, eventTypes(events), domain.EventOrderInvoiced)
}

func TestFulfillOrder_NotificationFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = domain.ErrNotificationFailed

	result, err := f.svc.FulfillOrder(context.Background(), checkoutRequest("key-n", f.bannerCart(t, "sn", 1)))
	require.NoError(t, err)
	require.True(t, result.Degraded)
	require.NotEmpty(t, result.AWBNumber)
	require.Equal(t, StageDegraded, result.Stages[5].Status)
}

func TestFulfillOrder_MissingCollaboratorsAreSkipped(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) {
		d.Courier = nil
		d.Notifier = nil
	})

	result, err := f.svc.FulfillOrder(context.Background(), checkoutRequest("key-s", f.bannerCart(t, "ss", 1)))
	require.NoError(t, err)
	require.False(t, result.Degraded)
	require.Equal(t, StageSkipped, result.Stages[3].Status)
	require.Equal(t, StageOK, result.Stages[4].Status)
	require.Equal(t, StageSkipped, result.Stages[5].Status)
}

func TestFulfillOrder_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := checkoutRequest("key-3", f.bannerCart(t, "s3", 2))

	first, err := f.svc.FulfillOrder(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.FulfillOrder(ctx, req)
	require.NoError(t, err)

	require.True(t, second.Replayed)
	require.Equal(t, first.OrderID, second.OrderID)
	require.Equal(t, first.AWBNumber, second.AWBNumber)
	require.Equal(t, 1, f.courier.CallCount())
	require.Equal(t, 1, f.invoicer.CallCount())

	stored, err := f.orders.Get(ctx, first.OrderID)
	require.NoError(t, err)
	require.Equal(t, first.OrderNumber, stored.Number)
}

func TestFulfillOrder_SameKeyDifferentPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-4", f.bannerCart(t, "s4", 1)))
	require.NoError(t, err)

	_, err = f.svc.FulfillOrder(ctx, checkoutRequest("key-4", f.bannerCart(t, "s4b", 5)))
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
	require.True(t, domain.IsConflict(err))
}

func TestFulfillOrder_InFlightKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := checkoutRequest("key-5", f.bannerCart(t, "s5", 1))

	hash, err := requestHash(req)
	require.NoError(t, err)
	_, err = f.idem.CreateProcessing(ctx, "key-5", hash, f.svc.now().Add(f.svc.idemTTL))
	require.NoError(t, err)

	_, err = f.svc.FulfillOrder(ctx, req)
	require.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	require.Equal(t, 0, f.courier.CallCount())
}

func TestFulfillOrder_ValidationHappensBeforeSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := checkoutRequest("key-6", domain.Cart{SessionID: "empty"})
	bad.Customer.Email = "not-an-email"
	_, err := f.svc.FulfillOrder(ctx, bad)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.ErrorIs(t, err, domain.ErrInvalidCheckout)
	require.Contains(t, vErr.Problems, "cart is empty")
	require.Contains(t, vErr.Problems, "email is invalid")

	_, err = f.idem.Get(ctx, "key-6")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	require.Empty(t, f.outbox.AllPending())
}

func TestFulfillOrder_IdempotencyKeyRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FulfillOrder(context.Background(), checkoutRequest("  ", f.bannerCart(t, "s7", 1)))
	require.ErrorIs(t, err, domain.ErrInvalidCheckout)
}

func TestFulfillOrder_PersistFailureReleasesKey(t *testing.T) {
	failing := &failingOrders{OrderRepository: memory.NewOrderRepository(), createErr: errors.New("disk full")}
	f := newFixture(t, func(d *Dependencies) { d.Orders = failing })
	ctx := context.Background()

	_, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-8", f.bannerCart(t, "s8", 1)))
	require.Error(t, err)

	_, err = f.idem.Get(ctx, "key-8")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	require.Equal(t, 0, f.courier.CallCount())
	require.Empty(t, f.outbox.AllPending())
}

func TestFulfillOrder_CashOnDelivery(t *testing.T) {
	f := newFixture(t)
	req := checkoutRequest("key-9", f.bannerCart(t, "s9", 1))
	req.PaymentMethod = domain.PaymentMethodCashOnDelivery

	result, err := f.svc.FulfillOrder(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, result.Status)

	require.Len(t, f.courier.Requests, 1)
	shipment := f.courier.Requests[0]
	require.Equal(t, result.AmountMinor, shipment.CODAmountMinor)
	require.Equal(t, "Ana Popescu", shipment.Recipient)
	// 1 м² × 0.55 кг + 0.5 кг упаковки, но не меньше 1 кг.
	require.Equal(t, "1.05", shipment.WeightKg.String())
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-10", f.bannerCart(t, "s10", 1)))
	require.NoError(t, err)

	canceled, err := f.svc.UpdateStatus(ctx, result.OrderID, domain.OrderStatusCanceled)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)

	again, err := f.svc.UpdateStatus(ctx, result.OrderID, domain.OrderStatusCanceled)
	require.NoError(t, err)
	require.Equal(t, canceled.Version, again.Version)

	_, err = f.svc.UpdateStatus(ctx, result.OrderID, domain.OrderStatusInProgress)
	require.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = f.svc.UpdateStatus(ctx, result.OrderID, domain.OrderStatus("shipped"))
	require.ErrorIs(t, err, domain.ErrInvalidOrderStatus)

	stored, err := f.orders.Get(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCanceled, stored.Status)

	_, err = f.svc.UpdateStatus(ctx, "missing", domain.OrderStatusCanceled)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateStatus_RetriesVersionConflict(t *testing.T) {
	racy := &failingOrders{OrderRepository: memory.NewOrderRepository(), saveConflicts: 1}
	f := newFixture(t, func(d *Dependencies) {
		d.Orders = racy
		d.Courier = nil
		d.Invoicer = nil
	})
	ctx := context.Background()

	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-11", f.bannerCart(t, "s11", 1)))
	require.NoError(t, err)

	order, err := f.svc.UpdateStatus(ctx, result.OrderID, domain.OrderStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, order.Status)
	require.Equal(t, 2, racy.saveCalls)
}

func TestAttachTracking(t *testing.T) {
	f := newFixture(t, func(d *Dependencies) { d.Courier = nil })
	ctx := context.Background()
	result, err := f.svc.FulfillOrder(ctx, checkoutRequest("key-12", f.bannerCart(t, "s12", 1)))
	require.NoError(t, err)

	_, err = f.svc.AttachTracking(ctx, result.OrderID, " ", "")
	require.ErrorIs(t, err, domain.ErrInvalidCheckout)

	order, err := f.svc.AttachTracking(ctx, result.OrderID, "AWB123", "")
	require.NoError(t, err)
	require.Equal(t, "AWB123", order.AWBNumber)
	require.Equal(t, domain.DefaultCarrier, order.AWBCarrier)

	_, err = f.svc.AttachTracking(ctx, "missing", "AWB123", "Cargus")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	view, err := f.svc.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, "AWB123", view.Order.AWBNumber)
	require.Contains(t, eventTypes(view.Timeline), domain.EventOrderShipmentRegistered)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetOrder(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestNewService_RequiresRepositories(t *testing.T) {
	_, err := NewService(Dependencies{})
	require.Error(t, err)
}

func eventTypes(events []domain.TimelineEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

type stubNotifier struct {
	mu   sync.Mutex
	err  error
	sent []domain.Notification
}

func (n *stubNotifier) NotifyOrderConfirmed(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *stubNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *stubNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type failingOrders struct {
	domain.OrderRepository
	createErr     error
	saveConflicts int
	saveCalls     int
}

func (r *failingOrders) Create(ctx context.Context, order domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.OrderRepository.Create(ctx, order)
}

func (r *failingOrders) Save(ctx context.Context, order domain.Order) error {
	r.saveCalls++
	if r.saveConflicts > 0 {
		r.saveConflicts--
		return domain.ErrOrderVersionConflict
	}
	return r.OrderRepository.Save(ctx, order)
}
