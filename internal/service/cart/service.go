// Package cart собирает корзину сессии: проверяет и оценивает конфигурации,
// объединяет одинаковые строки и считает итоги с доставкой и промокодом.
package cart

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/validation"
)

// Pricer считает цену конфигурации продукта.
type Pricer interface {
	Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error)
}

// ShippingEstimator возвращает стоимость доставки в регион.
type ShippingEstimator interface {
	ShippingCost(region string) decimal.Decimal
}

// Service: операции над корзиной. Конкурентные записи одной сессии: побеждает последняя.
type Service struct {
	catalog  domain.CatalogRepository
	pricer   Pricer
	shipping ShippingEstimator
	repo     domain.CartRepository
	logger   *log.Entry
	now      func() time.Time
}

// NewService создаёт сервис корзины.
func NewService(
	catalog domain.CatalogRepository,
	pricer Pricer,
	shipping ShippingEstimator,
	repo domain.CartRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart-service")
	}
	return &Service{
		catalog:  catalog,
		pricer:   pricer,
		shipping: shipping,
		repo:     repo,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get возвращает корзину сессии; новая сессия получает пустую корзину.
func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// AddItem проверяет и оценивает конфигурацию, затем добавляет строку.
// Строка с тем же отпечатком конфигурации получает увеличенное количество.
func (s *Service) AddItem(ctx context.Context, sessionID, slug string, cfg domain.Configuration) (domain.Cart, error) {
	product, err := s.catalog.Product(slug)
	if err != nil {
		return domain.Cart{}, err
	}
	cfg, err = validation.Validate(product, cfg)
	if err != nil {
		return domain.Cart{}, err
	}
	breakdown, err := s.pricer.Price(product, cfg)
	if err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	id := domain.Fingerprint(product.Slug, cfg)
	if idx := cart.Find(id); idx >= 0 {
		item := &cart.Items[idx]
		merged, err := checkedQuantity(int64(item.Quantity) + int64(cfg.Qty()))
		if err != nil {
			return domain.Cart{}, err
		}
		item.SetQuantity(merged)
		syncPricing(item)
		s.logger.WithFields(log.Fields{
			"session_id": cart.SessionID,
			"item_id":    id,
			"quantity":   item.Quantity,
		}).Debug("cart line merged")
	} else {
		item := domain.CartItem{
			ID:            id,
			ProductSlug:   product.Slug,
			ProductTitle:  product.Title,
			UnitAmount:    breakdown.UnitPrice,
			Configuration: cfg,
			Pricing:       breakdown,
		}
		item.SetQuantity(cfg.Qty())
		syncPricing(&item)
		cart.Items = append(cart.Items, item)
	}

	return s.save(ctx, cart)
}

// RemoveItem удаляет строку корзины.
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	idx := cart.Find(itemID)
	if idx < 0 {
		return domain.Cart{}, fmt.Errorf("%w: %s", domain.ErrCartItemNotFound, itemID)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.save(ctx, cart)
}

// UpdateQuantity меняет количество строки; qty < 1 удаляет строку.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int32) (domain.Cart, error) {
	if qty < 1 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	idx := cart.Find(itemID)
	if idx < 0 {
		return domain.Cart{}, fmt.Errorf("%w: %s", domain.ErrCartItemNotFound, itemID)
	}
	checked, err := checkedQuantity(int64(qty))
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items[idx].SetQuantity(checked)
	syncPricing(&cart.Items[idx])
	return s.save(ctx, cart)
}

// ApplyCoupon привязывает промокод к корзине. Пустой код снимает промокод.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if strings.TrimSpace(code) == "" {
		cart.CouponCode = ""
		return s.save(ctx, cart)
	}
	coupon, err := s.catalog.Coupon(code)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.CouponCode = coupon.Code
	return s.save(ctx, cart)
}

// Clear удаляет корзину целиком.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Totals считает итоги корзины для региона доставки.
// Пустая корзина не платит за доставку; исчезнувший из каталога промокод не даёт скидки.
func (s *Service) Totals(cart domain.Cart, region string) domain.Totals {
	subtotal := cart.Subtotal()
	totals := domain.Totals{
		Subtotal: subtotal.Round(2),
		Discount: decimal.Zero,
		Shipping: decimal.Zero,
		Currency: domain.Currency,
	}
	if len(cart.Items) > 0 && s.shipping != nil {
		totals.Shipping = s.shipping.ShippingCost(region).Round(2)
	}
	if cart.CouponCode != "" {
		if coupon, err := s.catalog.Coupon(cart.CouponCode); err == nil {
			totals.Discount = coupon.Discount(subtotal).Round(2)
		} else {
			s.logger.WithField("coupon", cart.CouponCode).Warn("cart coupon is no longer in catalog")
		}
	}
	totals.GrandTotal = totals.Subtotal.Add(totals.Shipping).Sub(totals.Discount)
	return totals
}

func (s *Service) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// syncPricing держит снимок цены согласованным с количеством строки.
// checkedQuantity отклоняет количество, не помещающееся в int32.
func checkedQuantity(qty int64) (int32, error) {
	if qty > math.MaxInt32 {
		return 0, domain.Reject(domain.ErrInvalidConfiguration, "quantity", "is too large")
	}
	return int32(qty), nil
}

func syncPricing(item *domain.CartItem) {
	item.Pricing.Quantity = item.Quantity
	item.Pricing.TotalPrice = item.TotalAmount
}

func requireSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", domain.ErrSessionRequired
	}
	return sessionID, nil
}
