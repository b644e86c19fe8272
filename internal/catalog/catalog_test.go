package catalog_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/printshop/internal/catalog"
	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	banner, err := c.Product("banner")
	require.NoError(t, err)
	require.Equal(t, domain.PricingModelTieredArea, banner.PricingModel)
	require.True(t, banner.SupportsOption(domain.OptionWindHoles))

	def, ok := banner.DefaultMaterial()
	require.True(t, ok)
	require.Equal(t, "frontlit-440", def.ID)

	heavy, ok := banner.Material("frontlit-510")
	require.True(t, ok)
	require.True(t, heavy.Heavy)

	canvas, err := c.Product("canvas")
	require.NoError(t, err)
	require.True(t, canvas.PriceBase.Equal(decimal.NewFromInt(50)))

	require.NotEmpty(t, c.Products())
	require.True(t, c.DefaultShipping().Equal(decimal.NewFromInt(25)))
}

func TestCatalogLookups(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	_, err = c.Product("poster")
	require.True(t, errors.Is(err, domain.ErrProductNotFound))

	coupon, err := c.Coupon("welcome10")
	require.NoError(t, err)
	require.Equal(t, domain.CouponTypePercentage, coupon.Type)

	_, err = c.Coupon("NOPE")
	require.True(t, errors.Is(err, domain.ErrCouponNotFound))

	region, ok := c.Region("cj")
	require.True(t, ok)
	require.Equal(t, 1, region.ETA.MinDays)

	for _, name := range []string{"Cluj", " cluj ", "CLUJ"} {
		byName, ok := c.Region(name)
		require.True(t, ok, "county %q", name)
		require.Equal(t, "CJ", byName.Code)
	}
	byName, ok := c.Region("Brașov")
	require.True(t, ok)
	require.Equal(t, "BV", byName.Code)

	_, ok = c.Region("XX")
	require.False(t, ok)
	_, ok = c.Region("Cluj-Napoca")
	require.False(t, ok)

	require.NotEmpty(t, c.Localities("ro"))
	require.Len(t, c.Localities("MD"), 1)
}

func TestParseRejectsBrokenCatalog(t *testing.T) {
	cases := map[string]string{
		"unknown model": `
products:
  - {slug: x, pricing_model: magic, min_width_cm: 1, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
`,
		"duplicate slug": `
products:
  - {slug: x, pricing_model: tiered_area, min_width_cm: 1, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
  - {slug: x, pricing_model: tiered_area, min_width_cm: 1, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
`,
		"bad bounds": `
products:
  - {slug: x, pricing_model: tiered_area, min_width_cm: 5, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
`,
		"bad money": `
products:
  - {slug: x, pricing_model: catalog_modifier, price_base: "abc", min_width_cm: 1, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
`,
		"coupon percentage": `
coupons:
  - {code: BIG, type: percentage, value: "150"}
`,
		"unknown option": `
products:
  - {slug: x, pricing_model: tiered_area, options: [glitter], min_width_cm: 1, max_width_cm: 2, min_height_cm: 1, max_height_cm: 2}
`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(raw))
			require.Error(t, err)
		})
	}
}
