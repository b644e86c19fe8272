// Package catalog загружает неизменяемый справочник витрины из YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type fileMaterial struct {
	ID                  string `yaml:"id"`
	Title               string `yaml:"title"`
	PriceModifierPerCm2 string `yaml:"price_modifier_per_cm2"`
	FixedExtra          string `yaml:"fixed_extra"`
	Heavy               bool   `yaml:"heavy"`
}

type fileProduct struct {
	Slug           string         `yaml:"slug"`
	Title          string         `yaml:"title"`
	PricingModel   string         `yaml:"pricing_model"`
	MinWidthCm     float64        `yaml:"min_width_cm"`
	MaxWidthCm     float64        `yaml:"max_width_cm"`
	MinHeightCm    float64        `yaml:"min_height_cm"`
	MaxHeightCm    float64        `yaml:"max_height_cm"`
	PriceBase      string         `yaml:"price_base"`
	PricePerCm2    string         `yaml:"price_per_cm2"`
	WeightKgPerSqm string         `yaml:"weight_kg_per_sqm"`
	DoubleSided    bool           `yaml:"double_sided"`
	Options        []string       `yaml:"options"`
	Materials      []fileMaterial `yaml:"materials"`
}

type fileCoupon struct {
	Code  string `yaml:"code"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

type fileRegion struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	MinDays int    `yaml:"min_days"`
	MaxDays int    `yaml:"max_days"`
	Carrier string `yaml:"carrier"`
	Cost    string `yaml:"cost"`
}

type fileLocality struct {
	City       string `yaml:"city"`
	County     string `yaml:"county"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country"`
}

type fileETA struct {
	MinDays int    `yaml:"min_days"`
	MaxDays int    `yaml:"max_days"`
	Carrier string `yaml:"carrier"`
}

type file struct {
	Currency        string         `yaml:"currency"`
	DefaultShipping string         `yaml:"default_shipping"`
	DefaultETA      fileETA        `yaml:"default_eta"`
	Products        []fileProduct  `yaml:"products"`
	Coupons         []fileCoupon   `yaml:"coupons"`
	Regions         []fileRegion   `yaml:"regions"`
	Localities      []fileLocality `yaml:"localities"`
}

// Catalog: загруженный справочник. Безопасен для конкурентного чтения, так как не меняется.
type Catalog struct {
	products        []domain.Product
	bySlug          map[string]int
	coupons         map[string]domain.Coupon
	regions         map[string]domain.Region
	regionNames     map[string]string // свёрнутое название округа -> код
	localities      map[string][]domain.Locality
	defaultShipping decimal.Decimal
	defaultETA      domain.ETA
}

// LoadFile читает каталог с диска; пустой путь означает встроенный каталог.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse разбирает YAML и проверяет целостность справочника.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		bySlug:      make(map[string]int, len(f.Products)),
		coupons:     make(map[string]domain.Coupon, len(f.Coupons)),
		regions:     make(map[string]domain.Region, len(f.Regions)),
		regionNames: make(map[string]string, len(f.Regions)),
		localities:  make(map[string][]domain.Locality),
		defaultETA:  domain.ETA{MinDays: 2, MaxDays: 5, Carrier: domain.DefaultCarrier},
	}

	var err error
	if c.defaultShipping, err = parseMoney(f.DefaultShipping, "default_shipping"); err != nil {
		return nil, err
	}
	if f.DefaultETA.MaxDays > 0 {
		c.defaultETA = domain.ETA{MinDays: f.DefaultETA.MinDays, MaxDays: f.DefaultETA.MaxDays, Carrier: f.DefaultETA.Carrier}
		if c.defaultETA.Carrier == "" {
			c.defaultETA.Carrier = domain.DefaultCarrier
		}
	}

	for _, fp := range f.Products {
		product, err := fp.toDomain()
		if err != nil {
			return nil, err
		}
		if _, dup := c.bySlug[product.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate product slug %q", product.Slug)
		}
		c.bySlug[product.Slug] = len(c.products)
		c.products = append(c.products, product)
	}

	for _, fc := range f.Coupons {
		value, err := parseMoney(fc.Value, "coupon "+fc.Code)
		if err != nil {
			return nil, err
		}
		coupon := domain.Coupon{Code: strings.ToUpper(strings.TrimSpace(fc.Code)), Type: domain.CouponType(fc.Type), Value: value}
		switch coupon.Type {
		case domain.CouponTypePercentage:
			if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("catalog: coupon %s percentage out of range", coupon.Code)
			}
		case domain.CouponTypeFixed:
		default:
			return nil, fmt.Errorf("catalog: coupon %s has unknown type %q", coupon.Code, fc.Type)
		}
		c.coupons[coupon.Code] = coupon
	}

	for _, fr := range f.Regions {
		cost, err := parseMoney(fr.Cost, "region "+fr.Code)
		if err != nil {
			return nil, err
		}
		carrier := fr.Carrier
		if carrier == "" {
			carrier = domain.DefaultCarrier
		}
		code := strings.ToUpper(strings.TrimSpace(fr.Code))
		c.regions[code] = domain.Region{
			Code: code,
			Name: fr.Name,
			ETA:  domain.ETA{MinDays: fr.MinDays, MaxDays: fr.MaxDays, Carrier: carrier},
			Cost: cost,
		}
		if name := domain.Fold(fr.Name); name != "" {
			c.regionNames[name] = code
		}
	}

	for _, fl := range f.Localities {
		country := strings.ToUpper(strings.TrimSpace(fl.Country))
		if country == "" {
			country = domain.DefaultCountry
		}
		c.localities[country] = append(c.localities[country], domain.Locality{
			City:       fl.City,
			County:     fl.County,
			PostalCode: fl.PostalCode,
			Country:    country,
		})
	}
	for country := range c.localities {
		list := c.localities[country]
		sort.SliceStable(list, func(i, j int) bool { return list[i].City < list[j].City })
	}

	return c, nil
}

func (fp fileProduct) toDomain() (domain.Product, error) {
	slug := strings.TrimSpace(fp.Slug)
	if slug == "" {
		return domain.Product{}, fmt.Errorf("catalog: product without slug")
	}
	model := domain.PricingModel(fp.PricingModel)
	if !model.Valid() {
		return domain.Product{}, fmt.Errorf("catalog: product %s: %w %q", slug, domain.ErrUnknownPricingModel, fp.PricingModel)
	}
	if fp.MinWidthCm <= 0 || fp.MinHeightCm <= 0 || fp.MaxWidthCm < fp.MinWidthCm || fp.MaxHeightCm < fp.MinHeightCm {
		return domain.Product{}, fmt.Errorf("catalog: product %s has invalid dimension bounds", slug)
	}

	p := domain.Product{
		Slug:         slug,
		Title:        fp.Title,
		PricingModel: model,
		MinWidthCm:   fp.MinWidthCm,
		MaxWidthCm:   fp.MaxWidthCm,
		MinHeightCm:  fp.MinHeightCm,
		MaxHeightCm:  fp.MaxHeightCm,
		DoubleSided:  fp.DoubleSided,
	}

	var err error
	if p.PriceBase, err = parseMoney(fp.PriceBase, slug+".price_base"); err != nil {
		return domain.Product{}, err
	}
	if p.PricePerCm2, err = parseMoney(fp.PricePerCm2, slug+".price_per_cm2"); err != nil {
		return domain.Product{}, err
	}
	if p.WeightKgPerSqm, err = parseMoney(fp.WeightKgPerSqm, slug+".weight_kg_per_sqm"); err != nil {
		return domain.Product{}, err
	}

	for _, o := range fp.Options {
		kind := domain.OptionKind(o)
		if kind != domain.OptionWindHoles && kind != domain.OptionHemGrommets {
			return domain.Product{}, fmt.Errorf("catalog: product %s has unknown option %q", slug, o)
		}
		p.Options = append(p.Options, kind)
	}

	seen := make(map[string]struct{}, len(fp.Materials))
	for _, fm := range fp.Materials {
		if fm.ID == "" {
			return domain.Product{}, fmt.Errorf("catalog: product %s has material without id", slug)
		}
		if _, dup := seen[fm.ID]; dup {
			return domain.Product{}, fmt.Errorf("catalog: product %s has duplicate material %s", slug, fm.ID)
		}
		seen[fm.ID] = struct{}{}

		m := domain.Material{ID: fm.ID, Title: fm.Title, Heavy: fm.Heavy}
		if m.PriceModifierPerCm2, err = parseMoney(fm.PriceModifierPerCm2, slug+"."+fm.ID); err != nil {
			return domain.Product{}, err
		}
		if m.FixedExtra, err = parseMoney(fm.FixedExtra, slug+"."+fm.ID); err != nil {
			return domain.Product{}, err
		}
		p.Materials = append(p.Materials, m)
	}

	return p, nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("catalog: %s: %w", field, err)
	}
	return d, nil
}

// Product возвращает продукт по slug.
func (c *Catalog) Product(slug string) (domain.Product, error) {
	idx, ok := c.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, slug)
	}
	return c.products[idx], nil
}

// Products возвращает копию списка продуктов.
func (c *Catalog) Products() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

// Coupon ищет промокод без учёта регистра.
func (c *Catalog) Coupon(code string) (domain.Coupon, error) {
	coupon, ok := c.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return domain.Coupon{}, fmt.Errorf("%w: %s", domain.ErrCouponNotFound, code)
	}
	return coupon, nil
}

// Region ищет регион по коду округа или по его названию ("CJ", "Cluj", "Brașov")
// без учёта регистра и диакритики.
func (c *Catalog) Region(county string) (domain.Region, bool) {
	if region, ok := c.regions[strings.ToUpper(strings.TrimSpace(county))]; ok {
		return region, true
	}
	code, ok := c.regionNames[domain.Fold(county)]
	if !ok {
		return domain.Region{}, false
	}
	return c.regions[code], true
}

// Localities возвращает населённые пункты страны.
func (c *Catalog) Localities(country string) []domain.Locality {
	return c.localities[strings.ToUpper(strings.TrimSpace(country))]
}

// DefaultShipping: стоимость доставки для неизвестного региона.
func (c *Catalog) DefaultShipping() decimal.Decimal {
	return c.defaultShipping
}

// DefaultETA: окно доставки для неизвестного региона.
func (c *Catalog) DefaultETA() domain.ETA {
	return c.defaultETA
}

var _ domain.CatalogRepository = (*Catalog)(nil)
