package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem: строка корзины со снимком конфигурации и цены.
type CartItem struct {
	ID            string          `json:"id"`
	ProductSlug   string          `json:"productSlug"`
	ProductTitle  string          `json:"productTitle"`
	Quantity      int32           `json:"quantity"`
	UnitAmount    decimal.Decimal `json:"unitAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Configuration Configuration   `json:"configuration"`
	Pricing       PriceBreakdown  `json:"pricing"`
}

// SetQuantity меняет количество и пересчитывает итог строки.
func (i *CartItem) SetQuantity(qty int32) {
	i.Quantity = qty
	i.Configuration.Quantity = float64(qty)
	i.TotalAmount = i.UnitAmount.Mul(decimal.NewFromInt32(qty))
}

// Cart: корзина сессии.
type Cart struct {
	SessionID  string     `json:"sessionId"`
	Items      []CartItem `json:"items"`
	CouponCode string     `json:"couponCode,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Find возвращает индекс позиции или -1.
func (c *Cart) Find(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Subtotal: сумма итогов всех строк.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalAmount)
	}
	return total
}

// Totals: производные суммы корзины.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Currency   string          `json:"currency"`
}

// Fingerprint однозначно описывает конфигурацию строки корзины.
// Одинаковые конфигурации одного продукта дают одинаковый отпечаток.
func Fingerprint(slug string, cfg Configuration) string {
	parts := []string{
		slug,
		strconv.FormatFloat(cfg.WidthCm, 'f', -1, 64),
		strconv.FormatFloat(cfg.HeightCm, 'f', -1, 64),
		cfg.MaterialID,
		strconv.FormatBool(cfg.Options.WindHoles),
		strconv.FormatBool(cfg.Options.HemGrommets),
		string(cfg.Side),
		string(cfg.Color),
		string(cfg.Design),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
