package domain

import "github.com/shopspring/decimal"

// PricingModel задаёт стратегию расчёта цены для семейства продуктов.
type PricingModel string

const (
	// PricingModelTieredArea: цена за м² по ступеням площади с аддитивным множителем опций.
	PricingModelTieredArea PricingModel = "tiered_area"
	// PricingModelCatalogModifier: базовая цена + цена за см² + модификатор материала.
	PricingModelCatalogModifier PricingModel = "catalog_modifier"
)

// Valid проверяет, что модель входит в закрытое перечисление.
func (m PricingModel) Valid() bool {
	return m == PricingModelTieredArea || m == PricingModelCatalogModifier
}

// OptionKind: опция отделки, которую продукт может принимать.
type OptionKind string

const (
	OptionWindHoles   OptionKind = "wind_holes"
	OptionHemGrommets OptionKind = "hem_grommets"
)

// Material: вариант материала, принадлежит ровно одному продукту.
type Material struct {
	ID                  string
	Title               string
	PriceModifierPerCm2 decimal.Decimal
	FixedExtra          decimal.Decimal
	// Heavy отмечает утяжелённый сорт материала (+0.10 к множителю в tiered-модели).
	Heavy bool
}

// Product: неизменяемая справочная запись каталога.
type Product struct {
	Slug           string
	Title          string
	PricingModel   PricingModel
	MinWidthCm     float64
	MaxWidthCm     float64
	MinHeightCm    float64
	MaxHeightCm    float64
	PriceBase      decimal.Decimal
	PricePerCm2    decimal.Decimal
	Materials      []Material
	DoubleSided    bool
	Options        []OptionKind
	WeightKgPerSqm decimal.Decimal
}

// Material ищет материал по идентификатору.
func (p Product) Material(id string) (Material, bool) {
	for _, m := range p.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

// DefaultMaterial возвращает первый материал продукта, если он есть.
func (p Product) DefaultMaterial() (Material, bool) {
	if len(p.Materials) == 0 {
		return Material{}, false
	}
	return p.Materials[0], true
}

// SupportsOption сообщает, принимает ли продукт опцию отделки.
func (p Product) SupportsOption(kind OptionKind) bool {
	for _, o := range p.Options {
		if o == kind {
			return true
		}
	}
	return false
}

// CouponType: способ расчёта скидки по промокоду.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon: промокод из каталога.
type Coupon struct {
	Code  string
	Type  CouponType
	Value decimal.Decimal
}

// Discount считает скидку для подытога; скидка не превышает подытог.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.Type {
	case CouponTypePercentage:
		discount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case CouponTypeFixed:
		discount = c.Value
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}
