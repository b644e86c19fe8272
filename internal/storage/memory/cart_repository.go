package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

// cartRepositoryInMemory хранит корзины сессий; последняя запись побеждает.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository создаёт in-memory реализацию CartRepository.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{carts: make(map[string]domain.Cart)}
}

func (r *cartRepositoryInMemory) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[sessionID]
	if !ok {
		return domain.Cart{SessionID: sessionID, Items: []domain.CartItem{}}, nil
	}
	return cloneCart(cart), nil
}

func (r *cartRepositoryInMemory) Save(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(cart.SessionID) == "" {
		return domain.ErrSessionRequired
	}
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.SessionID] = cloneCart(cart)
	return nil
}

func (r *cartRepositoryInMemory) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, strings.TrimSpace(sessionID))
	return nil
}

func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	dst.Items = make([]domain.CartItem, len(src.Items))
	for i, item := range src.Items {
		item.Pricing.Fees = append([]domain.Fee(nil), item.Pricing.Fees...)
		dst.Items[i] = item
	}
	return dst
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
