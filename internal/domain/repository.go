package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями. Возвращает ошибку, если ID уже занят.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(ctx context.Context, order Order) error
}

// CartRepository хранит корзины сессий. Последняя запись побеждает.
type CartRepository interface {
	// Get возвращает корзину сессии; отсутствующая корзина возвращается пустой.
	Get(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, cart Cart) error
	Delete(ctx context.Context, sessionID string) error
}
