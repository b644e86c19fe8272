package domain

// SideMode: односторонняя или двусторонняя печать.
type SideMode string

const (
	SideSingle SideMode = "single"
	SideDouble SideMode = "double"
)

// Color: цветность печати в простой модели.
type Color string

const (
	ColorFull      Color = "color"
	ColorGrayscale Color = "grayscale"
)

// Design: кто готовит макет.
type Design string

const (
	DesignUpload Design = "upload"
	DesignPro    Design = "pro"
	DesignNone   Design = "none"
)

// Options: явные флаги отделки. Неизвестные ключи отбрасываются на уровне декодирования.
type Options struct {
	WindHoles   bool `json:"windHoles"`
	HemGrommets bool `json:"hemGrommets"`
}

// Enabled перечисляет включённые опции.
func (o Options) Enabled() []OptionKind {
	var out []OptionKind
	if o.WindHoles {
		out = append(out, OptionWindHoles)
	}
	if o.HemGrommets {
		out = append(out, OptionHemGrommets)
	}
	return out
}

// Configuration: выбор покупателя для одного продукта.
type Configuration struct {
	WidthCm    float64  `json:"widthCm"`
	HeightCm   float64  `json:"heightCm"`
	Quantity   float64  `json:"quantity"`
	MaterialID string   `json:"materialId,omitempty"`
	Options    Options  `json:"options"`
	Side       SideMode `json:"side,omitempty"`
	Color      Color    `json:"color,omitempty"`
	Design     Design   `json:"design,omitempty"`
}

// Qty возвращает количество как целое; вызывать после валидации.
func (c Configuration) Qty() int32 {
	return int32(c.Quantity)
}

// AreaSqm: площадь одной единицы в м².
func (c Configuration) AreaSqm() float64 {
	return (c.WidthCm / 100) * (c.HeightCm / 100)
}
