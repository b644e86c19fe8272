package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

var doubleSidedFactor = decimal.RequireFromString("1.6")

// CatalogModifier: базовая цена продукта плюс площадь в см² и модификатор материала.
type CatalogModifier struct{}

// Model возвращает имя стратегии.
func (CatalogModifier) Model() domain.PricingModel {
	return domain.PricingModelCatalogModifier
}

// Price рассчитывает цену по параметрам каталога.
func (CatalogModifier) Price(product domain.Product, cfg domain.Configuration) (domain.PriceBreakdown, error) {
	if err := positiveDimensions(cfg); err != nil {
		return domain.PriceBreakdown{}, err
	}
	qty, err := quantity(cfg)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	area := decimal.NewFromFloat(cfg.WidthCm).Mul(decimal.NewFromFloat(cfg.HeightCm))
	areaCost := area.Mul(product.PricePerCm2)
	price := product.PriceBase.Add(areaCost)
	fees := []domain.Fee{
		{Name: "base", Amount: product.PriceBase.Round(2)},
		{Name: "area", Amount: areaCost.Round(2)},
	}

	if cfg.MaterialID != "" || len(product.Materials) > 0 {
		material, ok := resolveMaterial(product, cfg.MaterialID)
		if !ok {
			return domain.PriceBreakdown{}, domain.Reject(domain.ErrMaterialNotFound, "materialId",
				"material %q is not offered for %s", cfg.MaterialID, product.Slug)
		}
		extra := area.Mul(material.PriceModifierPerCm2).Add(material.FixedExtra)
		if !extra.IsZero() {
			price = price.Add(extra)
			fees = append(fees, domain.Fee{Name: "material", Amount: extra.Round(2)})
		}
	}

	multiplier := one
	if cfg.Side == domain.SideDouble && product.DoubleSided {
		multiplier = doubleSidedFactor
		fees = append(fees, domain.Fee{Name: "double_sided", Amount: price.Mul(multiplier.Sub(one)).Round(2)})
		price = price.Mul(multiplier)
	}

	unit := price.Round(2)
	return domain.PriceBreakdown{
		Model:      domain.PricingModelCatalogModifier,
		AreaSqm:    area.Div(decimal.NewFromInt(10000)).Round(4),
		AreaCm2:    area.Round(2),
		Multiplier: multiplier,
		UnitPrice:  unit,
		TotalPrice: unit.Mul(decimal.NewFromInt32(qty)),
		Quantity:   qty,
		Fees:       fees,
	}, nil
}
