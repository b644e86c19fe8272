package domain

import "github.com/shopspring/decimal"

// DefaultCarrier: курьер по умолчанию.
const DefaultCarrier = "DPD"

// ETA: окно доставки в рабочих днях.
type ETA struct {
	MinDays int    `json:"minDays"`
	MaxDays int    `json:"maxDays"`
	Carrier string `json:"carrier"`
}

// Region: строка справочника регионов доставки.
type Region struct {
	Code string
	Name string
	ETA  ETA
	Cost decimal.Decimal
}

// Locality: населённый пункт для подсказок адреса.
type Locality struct {
	City       string `json:"city"`
	County     string `json:"county"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"-"`
}

// ShipmentRequest: данные для регистрации отправления у курьера.
type ShipmentRequest struct {
	OrderID        string
	OrderNumber    string
	Recipient      string
	Phone          string
	Email          string
	Address        Address
	WeightKg       decimal.Decimal
	Parcels        int
	CODAmountMinor int64
	Currency       string
}

// Shipment: зарегистрированное отправление.
type Shipment struct {
	AWBNumber string
	Carrier   string
}

// InvoiceRequest: данные для выставления счёта.
type InvoiceRequest struct {
	OrderID     string
	OrderNumber string
	Customer    Customer
	Items       []OrderItem
	AmountMinor int64
	Currency    string
}

// InvoiceReference: ссылка на выставленный счёт.
type InvoiceReference struct {
	ID  string
	URL string
}

// Notification: подтверждение заказа клиенту.
type Notification struct {
	OrderID     string
	OrderNumber string
	To          string
	Name        string
	AmountMinor int64
	Currency    string
	InvoiceURL  string
	AWBNumber   string
}
