package domain

import "github.com/shopspring/decimal"

// Currency: валюта витрины.
const Currency = "RON"

// Fee: именованный вклад в цену, для прозрачной разбивки.
type Fee struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceBreakdown: результат расчёта цены.
type PriceBreakdown struct {
	Model       PricingModel    `json:"model"`
	AreaSqm     decimal.Decimal `json:"areaSqm"`
	AreaCm2     decimal.Decimal `json:"areaCm2"`
	TierRate    decimal.Decimal `json:"tierRate"`
	PricePerSqm decimal.Decimal `json:"pricePerSqm"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Quantity    int32           `json:"quantity"`
	Fees        []Fee           `json:"fees,omitempty"`
}

// ToMinor переводит сумму в бани с округлением half-up.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// FromMinor переводит бани обратно в decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
