// Package shipping оценивает сроки и стоимость доставки и подсказывает населённые пункты.
package shipping

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// MaxLocalityResults ограничивает выдачу подсказок.
const MaxLocalityResults = 20

// Reference: справочник, из которого читает оценщик.
type Reference interface {
	Region(code string) (domain.Region, bool)
	Localities(country string) []domain.Locality
	DefaultShipping() decimal.Decimal
	DefaultETA() domain.ETA
}

// Estimator: чистый поиск по справочнику, никогда не падает на неизвестном регионе.
type Estimator struct {
	ref Reference
}

// NewEstimator создаёт оценщик поверх справочника.
func NewEstimator(ref Reference) *Estimator {
	return &Estimator{ref: ref}
}

// ETA возвращает окно доставки для кода округа или окно по умолчанию.
func (e *Estimator) ETA(region string) domain.ETA {
	if r, ok := e.ref.Region(region); ok && r.ETA.MaxDays > 0 {
		return r.ETA
	}
	return e.ref.DefaultETA()
}

// ShippingCost возвращает стоимость доставки в регион или фиксированную ставку.
func (e *Estimator) ShippingCost(region string) decimal.Decimal {
	if r, ok := e.ref.Region(region); ok {
		return r.Cost
	}
	return e.ref.DefaultShipping()
}

// SearchLocalities ищет населённые пункты без учёта регистра и диакритики.
// Совпадения по префиксу идут раньше совпадений по подстроке.
func (e *Estimator) SearchLocalities(query, country string) []domain.Locality {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []domain.Locality{}
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = domain.DefaultCountry
	}

	needle := domain.Fold(query)
	type hit struct {
		loc    domain.Locality
		prefix bool
	}
	var hits []hit
	for _, loc := range e.ref.Localities(country) {
		city := domain.Fold(loc.City)
		switch {
		case strings.HasPrefix(city, needle):
			hits = append(hits, hit{loc: loc, prefix: true})
		case strings.Contains(city, needle):
			hits = append(hits, hit{loc: loc})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prefix && !hits[j].prefix
	})

	out := make([]domain.Locality, 0, min(len(hits), MaxLocalityResults))
	for _, h := range hits {
		if len(out) == MaxLocalityResults {
			break
		}
		out = append(out, h.loc)
	}
	return out
}
