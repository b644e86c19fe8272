// Package firestore хранит корзины сессий в Cloud Firestore.
//
// Коллекция carts, id документа совпадает с идентификатором сессии.
// Поле expiresAt предназначено для TTL-политики Firestore.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

const (
	cartsCollection = "carts"
	// DefaultCartTTL: срок жизни брошенной корзины.
	DefaultCartTTL = 30 * 24 * time.Hour
)

var errNilClient = errors.New("firestore client is nil")

// NewClient создаёт клиент Firestore. Пустой credentialsFile означает ADC.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// CartRepository реализует domain.CartRepository поверх Firestore.
type CartRepository struct {
	client *firestore.Client
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewCartRepository создаёт репозиторий. ttl <= 0 заменяется DefaultCartTTL.
func NewCartRepository(client *firestore.Client, ttl time.Duration, logger *log.Entry) *CartRepository {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	if logger == nil {
		logger = log.New().WithField("component", "firestore-carts")
	}
	return &CartRepository{
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (r *CartRepository) col() *firestore.CollectionRef {
	return r.client.Collection(cartsCollection)
}

// Get возвращает корзину; отсутствующий документ даёт пустую корзину.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if r == nil || r.client == nil {
		return domain.Cart{}, errNilClient
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionRequired
	}

	snap, err := r.col().Doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Cart{SessionID: sessionID}, nil
		}
		return domain.Cart{}, fmt.Errorf("get cart %s: %w", sessionID, err)
	}

	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	cart, err := doc.toDomain(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Save перезаписывает документ целиком.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if r == nil || r.client == nil {
		return errNilClient
	}
	cart.SessionID = strings.TrimSpace(cart.SessionID)
	if cart.SessionID == "" {
		return domain.ErrSessionRequired
	}

	now := r.now()
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = now
	}
	doc, err := cartDocFromDomain(cart, now.Add(r.ttl))
	if err != nil {
		return err
	}
	if _, err := r.col().Doc(cart.SessionID).Set(ctx, doc); err != nil {
		return fmt.Errorf("set cart %s: %w", cart.SessionID, err)
	}
	return nil
}

// Delete удаляет документ корзины. Удаление отсутствующего документа не ошибка.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if r == nil || r.client == nil {
		return errNilClient
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.ErrSessionRequired
	}
	if _, err := r.col().Doc(sessionID).Delete(ctx); err != nil {
		return fmt.Errorf("delete cart %s: %w", sessionID, err)
	}
	r.logger.WithField("session_id", sessionID).Debug("cart document deleted")
	return nil
}

// Ping читает список коллекций: у Firestore нет отдельного ping API.
func (r *CartRepository) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errNilClient
	}
	if _, err := r.client.Collections(ctx).Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

var _ domain.CartRepository = (*CartRepository)(nil)

type cartDoc struct {
	Items      []cartItemDoc `firestore:"items"`
	CouponCode string        `firestore:"couponCode"`
	UpdatedAt  time.Time     `firestore:"updatedAt"`
	ExpiresAt  time.Time     `firestore:"expiresAt"`
}

// Деньги хранятся строками, чтобы не терять точность decimal.
type cartItemDoc struct {
	ID           string   `firestore:"id"`
	ProductSlug  string   `firestore:"productSlug"`
	ProductTitle string   `firestore:"productTitle"`
	Quantity     int64    `firestore:"quantity"`
	UnitAmount   string   `firestore:"unitAmount"`
	TotalAmount  string   `firestore:"totalAmount"`
	Config       cfgDoc   `firestore:"configuration"`
	Pricing      []byte   `firestore:"pricing"`
	Enabled      []string `firestore:"options"`
}

type cfgDoc struct {
	WidthCm    float64 `firestore:"widthCm"`
	HeightCm   float64 `firestore:"heightCm"`
	MaterialID string  `firestore:"materialId"`
	Side       string  `firestore:"side"`
	Color      string  `firestore:"color"`
	Design     string  `firestore:"design"`
}

func cartDocFromDomain(cart domain.Cart, expiresAt time.Time) (cartDoc, error) {
	doc := cartDoc{
		Items:      make([]cartItemDoc, 0, len(cart.Items)),
		CouponCode: cart.CouponCode,
		UpdatedAt:  cart.UpdatedAt,
		ExpiresAt:  expiresAt,
	}
	for _, item := range cart.Items {
		pricing, err := json.Marshal(item.Pricing)
		if err != nil {
			return cartDoc{}, fmt.Errorf("encode pricing of %s: %w", item.ID, err)
		}
		enabled := make([]string, 0, 2)
		for _, kind := range item.Configuration.Options.Enabled() {
			enabled = append(enabled, string(kind))
		}
		doc.Items = append(doc.Items, cartItemDoc{
			ID:           item.ID,
			ProductSlug:  item.ProductSlug,
			ProductTitle: item.ProductTitle,
			Quantity:     int64(item.Quantity),
			UnitAmount:   item.UnitAmount.String(),
			TotalAmount:  item.TotalAmount.String(),
			Config: cfgDoc{
				WidthCm:    item.Configuration.WidthCm,
				HeightCm:   item.Configuration.HeightCm,
				MaterialID: item.Configuration.MaterialID,
				Side:       string(item.Configuration.Side),
				Color:      string(item.Configuration.Color),
				Design:     string(item.Configuration.Design),
			},
			Pricing: pricing,
			Enabled: enabled,
		})
	}
	return doc, nil
}

func (d cartDoc) toDomain(sessionID string) (domain.Cart, error) {
	cart := domain.Cart{
		SessionID:  sessionID,
		Items:      make([]domain.CartItem, 0, len(d.Items)),
		CouponCode: d.CouponCode,
		UpdatedAt:  d.UpdatedAt,
	}
	for _, doc := range d.Items {
		unit, err := decimal.NewFromString(doc.UnitAmount)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("decode unit amount of %s: %w", doc.ID, err)
		}
		item := domain.CartItem{
			ID:           doc.ID,
			ProductSlug:  doc.ProductSlug,
			ProductTitle: doc.ProductTitle,
			UnitAmount:   unit,
			Configuration: domain.Configuration{
				WidthCm:    doc.Config.WidthCm,
				HeightCm:   doc.Config.HeightCm,
				MaterialID: doc.Config.MaterialID,
				Side:       domain.SideMode(doc.Config.Side),
				Color:      domain.Color(doc.Config.Color),
				Design:     domain.Design(doc.Config.Design),
			},
		}
		for _, kind := range doc.Enabled {
			switch domain.OptionKind(kind) {
			case domain.OptionWindHoles:
				item.Configuration.Options.WindHoles = true
			case domain.OptionHemGrommets:
				item.Configuration.Options.HemGrommets = true
			}
		}
		if len(doc.Pricing) > 0 {
			if err := json.Unmarshal(doc.Pricing, &item.Pricing); err != nil {
				return domain.Cart{}, fmt.Errorf("decode pricing of %s: %w", doc.ID, err)
			}
		}
		// Итог строки пересчитывается из цены за единицу.
		item.SetQuantity(int32(doc.Quantity))
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}
