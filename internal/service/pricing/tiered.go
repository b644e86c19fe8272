package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

type tier struct {
	from  decimal.Decimal // нижняя граница площади (включительно)
	below decimal.Decimal // верхняя граница площади (не включительно); Zero для последней ступени
	rate  decimal.Decimal // цена за м² внутри ступени
}

var (
	hundred    = decimal.NewFromInt(100)
	optionStep = decimal.RequireFromString("0.10")
	one        = decimal.NewFromInt(1)
	tiers      = []tier{
		{from: decimal.Zero, below: decimal.NewFromInt(1), rate: decimal.NewFromInt(100)},
		{from: decimal.NewFromInt(1), below: decimal.NewFromInt(5), rate: decimal.NewFromInt(75)},
		{from: decimal.NewFromInt(5), below: decimal.NewFromInt(20), rate: decimal.NewFromInt(50)},
		{from: decimal.NewFromInt(20), below: decimal.Zero, rate: decimal.NewFromInt(30)},
	}
)

// TieredArea: ступенчатая цена за м² и аддитивный множитель опций.
// Каждая ступень тарифицирует только свою часть площади, поэтому цена
// непрерывна и строго растёт с площадью.
type TieredArea struct{}

// Model возвращает имя стратегии.
func (TieredArea) Model() domain.PricingModel {
	return domain.PricingModelTieredArea
}

// TierRate возвращает ставку за м² для площади.
func TierRate(areaSqm decimal.Decimal) decimal.Decimal {
	return tierFor(areaSqm).rate
}

func tierFor(areaSqm decimal.Decimal) tier {
	for _, t := range tiers {
		if t.below.IsZero() || areaSqm.LessThan(t.below) {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Price рассчитывает цену баннера.
func (TieredArea) Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error) {
	if err := positiveDimensions(cfg); err != nil {
		return domain.PriceBreakdown{}, err
	}
	qty, err := quantity(cfg)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	width := decimal.NewFromFloat(math.Max(cfg.WidthCm, 1))
	height := decimal.NewFromFloat(math.Max(cfg.HeightCm, 1))
	area := width.Div(hundred).Mul(height.Div(hundred))

	t := tierFor(area)
	base := graduatedBase(area)

	enabled := int64(len(cfg.Options.Enabled()))
	if material, ok := resolveMaterial(product, cfg.MaterialID); ok && material.Heavy {
		enabled++
	}
	multiplier := one.Add(optionStep.Mul(decimal.NewFromInt(enabled)))

	unit := base.Mul(multiplier)
	total := unit.Mul(decimal.NewFromInt32(qty))

	fees := []domain.Fee{{Name: "base", Amount: base.Round(2)}}
	if enabled > 0 {
		fees = append(fees, domain.Fee{Name: "options", Amount: unit.Sub(base).Round(2)})
	}

	return domain.PriceBreakdown{
		Model:       domain.PricingModelTieredArea,
		AreaSqm:     area.Round(4),
		AreaCm2:     width.Mul(height).Round(2),
		TierRate:    t.rate,
		PricePerSqm: base.Div(area).Round(2),
		Multiplier:  multiplier,
		UnitPrice:   unit.Round(2),
		TotalPrice:  total.Round(2),
		Quantity:    qty,
		Fees:        fees,
	}, nil
}

// graduatedBase суммирует стоимость площади по ступеням: первый м² по 100,
// следующие до 5 м² по 75, до 20 м² по 50, остальное по 30.
func graduatedBase(area decimal.Decimal) decimal.Decimal {
	base := decimal.Zero
	for _, t := range tiers {
		if !area.GreaterThan(t.from) {
			break
		}
		upper := area
		if !t.below.IsZero() && t.below.LessThan(area) {
			upper = t.below
		}
		base = base.Add(upper.Sub(t.from).Mul(t.rate))
	}
	return base
}

// resolveMaterial возвращает материал конфигурации или материал по умолчанию.
func resolveMaterial(product domain.Product, id string) (domain.Material, bool) {
	if id == "" {
		return product.DefaultMaterial()
	}
	return product.Material(id)
}
