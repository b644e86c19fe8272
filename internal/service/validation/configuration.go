// Package validation проверяет конфигурацию продукта и данные оформления заказа.
package validation

import (
	"math"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// Validate проверяет конфигурацию относительно ограничений продукта и возвращает
// нормализованную копию: целое количество, материал и сторона по умолчанию.
func Validate(product domain.Product, cfg domain.Configuration) (domain.Configuration, error) {
	if err := finite("widthCm", cfg.WidthCm); err != nil {
		return domain.Configuration{}, err
	}
	if err := finite("heightCm", cfg.HeightCm); err != nil {
		return domain.Configuration{}, err
	}

	if cfg.WidthCm < product.MinWidthCm || cfg.WidthCm > product.MaxWidthCm {
		return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "widthCm",
			"must be between %g and %g cm", product.MinWidthCm, product.MaxWidthCm)
	}
	if cfg.HeightCm < product.MinHeightCm || cfg.HeightCm > product.MaxHeightCm {
		return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "heightCm",
			"must be between %g and %g cm", product.MinHeightCm, product.MaxHeightCm)
	}

	qty, err := NormalizeQuantity(cfg.Quantity)
	if err != nil {
		return domain.Configuration{}, err
	}
	cfg.Quantity = qty

	if len(product.Materials) > 0 {
		if cfg.MaterialID == "" {
			def, _ := product.DefaultMaterial()
			cfg.MaterialID = def.ID
		} else if _, ok := product.Material(cfg.MaterialID); !ok {
			return domain.Configuration{}, domain.Reject(domain.ErrMaterialNotFound, "materialId",
				"material %q is not offered for %s", cfg.MaterialID, product.Slug)
		}
	} else if cfg.MaterialID != "" {
		return domain.Configuration{}, domain.Reject(domain.ErrMaterialNotFound, "materialId",
			"%s has no material variants", product.Slug)
	}

	for _, opt := range cfg.Options.Enabled() {
		if !product.SupportsOption(opt) {
			return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "options",
				"option %s is not available for %s", opt, product.Slug)
		}
	}

	switch cfg.Side {
	case "":
		cfg.Side = domain.SideSingle
	case domain.SideSingle:
	case domain.SideDouble:
		if !product.DoubleSided {
			return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "side",
				"%s cannot be printed double-sided", product.Slug)
		}
	default:
		return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "side", "unknown side %q", cfg.Side)
	}

	switch cfg.Color {
	case "", domain.ColorFull, domain.ColorGrayscale:
	default:
		return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "color", "unknown color mode %q", cfg.Color)
	}
	switch cfg.Design {
	case "", domain.DesignUpload, domain.DesignPro, domain.DesignNone:
	default:
		return domain.Configuration{}, domain.Reject(domain.ErrInvalidConfiguration, "design", "unknown design option %q", cfg.Design)
	}

	return cfg, nil
}

// NormalizeQuantity округляет количество вниз; ноль трактуется как не указанное значение.
func NormalizeQuantity(raw float64) (float64, error) {
	if err := finite("quantity", raw); err != nil {
		return 0, err
	}
	if raw == 0 {
		return 1, nil
	}
	qty := math.Floor(raw)
	if qty < 1 {
		return 0, domain.Reject(domain.ErrInvalidConfiguration, "quantity", "must be at least 1")
	}
	if qty > math.MaxInt32 {
		return 0, domain.Reject(domain.ErrInvalidConfiguration, "quantity", "is too large")
	}
	return qty, nil
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.Reject(domain.ErrMalformedInput, field, "must be a finite number")
	}
	return nil
}
