package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/service/fulfillment"
)

type bannerPriceRequest struct {
	WidthCm      float64 `json:"widthCm"`
	HeightCm     float64 `json:"heightCm"`
	Quantity     float64 `json:"quantity"`
	Material     string  `json:"material"`
	Color        string  `json:"color"`
	DesignOption string  `json:"designOption"`
	WindHoles    bool    `json:"windHoles"`
	HemGrommets  bool    `json:"hemGrommets"`
}

type priceResponse struct {
	Product  string                `json:"product"`
	Currency string                `json:"currency"`
	Price    domain.PriceBreakdown `json:"price"`
}

type materialDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Heavy bool   `json:"heavy,omitempty"`
}

type productDTO struct {
	Slug         string              `json:"slug"`
	Title        string              `json:"title"`
	PricingModel domain.PricingModel `json:"pricingModel"`
	MinWidthCm   float64             `json:"minWidthCm"`
	MaxWidthCm   float64             `json:"maxWidthCm"`
	MinHeightCm  float64             `json:"minHeightCm"`
	MaxHeightCm  float64             `json:"maxHeightCm"`
	DoubleSided  bool                `json:"doubleSided"`
	Options      []domain.OptionKind `json:"options"`
	Materials    []materialDTO       `json:"materials"`
}

func toProductDTO(p domain.Product) productDTO {
	dto := productDTO{
		Slug:         p.Slug,
		Title:        p.Title,
		PricingModel: p.PricingModel,
		MinWidthCm:   p.MinWidthCm,
		MaxWidthCm:   p.MaxWidthCm,
		MinHeightCm:  p.MinHeightCm,
		MaxHeightCm:  p.MaxHeightCm,
		DoubleSided:  p.DoubleSided,
		Options:      append([]domain.OptionKind{}, p.Options...),
		Materials:    make([]materialDTO, 0, len(p.Materials)),
	}
	for _, m := range p.Materials {
		dto.Materials = append(dto.Materials, materialDTO{ID: m.ID, Title: m.Title, Heavy: m.Heavy})
	}
	return dto
}

type addItemRequest struct {
	Slug          string               `json:"slug"`
	Configuration domain.Configuration `json:"configuration"`
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type cartResponse struct {
	Cart   domain.Cart   `json:"cart"`
	Totals domain.Totals `json:"totals"`
}

type addressDTO struct {
	County     string `json:"county"`
	Locality   string `json:"locality"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	PostalCode string `json:"postalCode"`
	Building   string `json:"building,omitempty"`
	Entrance   string `json:"entrance,omitempty"`
	Floor      string `json:"floor,omitempty"`
	Apartment  string `json:"apartment,omitempty"`
	Intercom   string `json:"intercom,omitempty"`
	Country    string `json:"country,omitempty"`
	IsDefault  bool   `json:"isDefault,omitempty"`
	Type       string `json:"type,omitempty"`
}

func (a addressDTO) toDomain() domain.Address {
	return domain.Address{
		County:     a.County,
		Locality:   a.Locality,
		Street:     a.Street,
		Number:     a.Number,
		PostalCode: a.PostalCode,
		Building:   a.Building,
		Entrance:   a.Entrance,
		Floor:      a.Floor,
		Apartment:  a.Apartment,
		Intercom:   a.Intercom,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		Type:       domain.AddressType(a.Type),
	}
}

func fromAddress(a domain.Address) addressDTO {
	return addressDTO{
		County:     a.County,
		Locality:   a.Locality,
		Street:     a.Street,
		Number:     a.Number,
		PostalCode: a.PostalCode,
		Building:   a.Building,
		Entrance:   a.Entrance,
		Floor:      a.Floor,
		Apartment:  a.Apartment,
		Intercom:   a.Intercom,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		Type:       string(a.Type),
	}
}

type customerDTO struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CompanyName  string `json:"companyName,omitempty"`
	CompanyTaxID string `json:"companyTaxId,omitempty"`
	CompanyRegNo string `json:"companyRegNo,omitempty"`
}

type createOrderRequest struct {
	Customer        customerDTO `json:"customer"`
	BillingAddress  addressDTO  `json:"billingAddress"`
	ShippingAddress *addressDTO `json:"shippingAddress,omitempty"`
	PaymentMethod   string      `json:"paymentMethod"`
}

func (r createOrderRequest) customer() domain.Customer {
	c := domain.Customer{
		FirstName:      r.Customer.FirstName,
		LastName:       r.Customer.LastName,
		Email:          r.Customer.Email,
		Phone:          r.Customer.Phone,
		CompanyName:    r.Customer.CompanyName,
		CompanyTaxID:   r.Customer.CompanyTaxID,
		CompanyRegNo:   r.Customer.CompanyRegNo,
		BillingAddress: r.BillingAddress.toDomain(),
	}
	if r.ShippingAddress != nil {
		shipping := r.ShippingAddress.toDomain()
		c.ShippingAddress = &shipping
	}
	return c
}

type createOrderResponse struct {
	Success     bool                      `json:"success"`
	OrderID     string                    `json:"orderId"`
	OrderNumber string                    `json:"orderNumber"`
	Status      domain.OrderStatus        `json:"status"`
	Amount      decimal.Decimal           `json:"amount"`
	Currency    string                    `json:"currency"`
	InvoiceLink string                    `json:"invoiceLink,omitempty"`
	AWBNumber   string                    `json:"awbNumber,omitempty"`
	Degraded    bool                      `json:"degraded"`
	Stages      []fulfillment.StageResult `json:"stages"`
}

type orderItemDTO struct {
	ID            string               `json:"id"`
	ProductSlug   string               `json:"productSlug"`
	ProductTitle  string               `json:"productTitle"`
	Quantity      int32                `json:"quantity"`
	UnitPrice     decimal.Decimal      `json:"unitPrice"`
	Total         decimal.Decimal      `json:"total"`
	Configuration domain.Configuration `json:"configuration"`
}

type orderDTO struct {
	ID              string             `json:"id"`
	Number          string             `json:"number"`
	Status          domain.OrderStatus `json:"status"`
	PaymentMethod   string             `json:"paymentMethod"`
	Currency        string             `json:"currency"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Shipping        decimal.Decimal    `json:"shipping"`
	Discount        decimal.Decimal    `json:"discount"`
	Amount          decimal.Decimal    `json:"amount"`
	Customer        customerDTO        `json:"customer"`
	BillingAddress  addressDTO         `json:"billingAddress"`
	ShippingAddress *addressDTO        `json:"shippingAddress,omitempty"`
	Items           []orderItemDTO     `json:"items"`
	AWBNumber       string             `json:"awbNumber,omitempty"`
	AWBCarrier      string             `json:"awbCarrier,omitempty"`
	InvoiceID       string             `json:"invoiceId,omitempty"`
	InvoiceURL      string             `json:"invoiceUrl,omitempty"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	CanceledAt      *time.Time         `json:"canceledAt,omitempty"`
	FulfilledAt     *time.Time         `json:"fulfilledAt,omitempty"`
}

func toOrderDTO(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:            o.ID,
		Number:        o.Number,
		Status:        o.Status,
		PaymentMethod: string(o.PaymentMethod),
		Currency:      o.Currency,
		Subtotal:      domain.FromMinor(o.SubtotalMinor),
		Shipping:      domain.FromMinor(o.ShippingMinor),
		Discount:      domain.FromMinor(o.DiscountMinor),
		Amount:        domain.FromMinor(o.AmountMinor),
		Customer: customerDTO{
			FirstName:    o.Customer.FirstName,
			LastName:     o.Customer.LastName,
			Email:        o.Customer.Email,
			Phone:        o.Customer.Phone,
			CompanyName:  o.Customer.CompanyName,
			CompanyTaxID: o.Customer.CompanyTaxID,
			CompanyRegNo: o.Customer.CompanyRegNo,
		},
		BillingAddress: fromAddress(o.Customer.BillingAddress),
		Items:          make([]orderItemDTO, 0, len(o.Items)),
		AWBNumber:      o.AWBNumber,
		AWBCarrier:     o.AWBCarrier,
		InvoiceID:      o.InvoiceID,
		InvoiceURL:     o.InvoiceURL,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		CanceledAt:     o.CanceledAt,
		FulfilledAt:    o.FulfilledAt,
	}
	if o.Customer.ShippingAddress != nil {
		shipping := fromAddress(*o.Customer.ShippingAddress)
		dto.ShippingAddress = &shipping
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			ID:            item.ID,
			ProductSlug:   item.ProductSlug,
			ProductTitle:  item.ProductTitle,
			Quantity:      item.Qty,
			UnitPrice:     domain.FromMinor(item.PriceMinor),
			Total:         domain.FromMinor(item.TotalMinor()),
			Configuration: item.Configuration,
		})
	}
	return dto
}

type orderViewResponse struct {
	Order    orderDTO               `json:"order"`
	Timeline []domain.TimelineEvent `json:"timeline"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type attachAWBRequest struct {
	AWBNumber  string `json:"awbNumber"`
	AWBCarrier string `json:"awbCarrier"`
}

type localitiesResponse struct {
	Localities []domain.Locality `json:"localities"`
}
