package courier

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

var (
	packagingKg = decimal.RequireFromString("0.5")
	minWeightKg = decimal.NewFromInt(1)
)

// WeightKg оценивает вес посылки: площадь × количество × вес м² продукта,
// плюс упаковка; не меньше одного килограмма.
func WeightKg(items []domain.OrderItem, weightPerSqm func(slug string) decimal.Decimal) decimal.Decimal {
	total := packagingKg
	for _, item := range items {
		perSqm := decimal.Zero
		if weightPerSqm != nil {
			perSqm = weightPerSqm(item.ProductSlug)
		}
		total = total.Add(decimal.NewFromFloat(item.AreaSqm).Mul(decimal.NewFromInt32(item.Qty)).Mul(perSqm))
	}
	return decimal.Max(total, minWeightKg).Round(2)
}
