package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

const opTimeout = 5 * time.Second

const orderColumns = `
	id, number, customer, payment_method, status, currency,
	subtotal_minor, shipping_minor, discount_minor, amount_minor,
	awb_number, awb_carrier, invoice_id, invoice_url,
	version, created_at, updated_at, canceled_at, fulfilled_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, number, customer_email, customer, payment_method, status, currency,
			subtotal_minor, shipping_minor, discount_minor, amount_minor,
			awb_number, awb_carrier, invoice_id, invoice_url,
			version, created_at, updated_at, canceled_at, fulfilled_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		order.ID,
		order.Number,
		order.Customer.Email,
		customer,
		string(order.PaymentMethod),
		string(order.Status),
		order.Currency,
		order.SubtotalMinor,
		order.ShippingMinor,
		order.DiscountMinor,
		order.AmountMinor,
		order.AWBNumber,
		order.AWBCarrier,
		order.InvoiceID,
		order.InvoiceURL,
		order.Version,
		order.CreatedAt,
		order.UpdatedAt,
		nullTime(order.CanceledAt),
		nullTime(order.FulfilledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s already exists", domain.ErrOrderVersionConflict, order.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for pos, item := range order.Items {
		cfg, err := json.Marshal(item.Configuration)
		if err != nil {
			return fmt.Errorf("encode item configuration: %w", err)
		}
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = order.CreatedAt
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, item_id, position, product_slug, product_title,
				qty, price_minor, area_sqm, configuration, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			order.ID, item.ID, pos, item.ProductSlug, item.ProductTitle,
			item.Qty, item.PriceMinor, item.AreaSqm, cfg, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// Save обновляет изменяемые поля заказа. Позиции после создания не меняются.
func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    awb_number = $2,
		    awb_carrier = $3,
		    invoice_id = $4,
		    invoice_url = $5,
		    updated_at = $6,
		    canceled_at = $7,
		    fulfilled_at = $8,
		    version = version + 1
		WHERE id = $9 AND version = $10
	`,
		string(order.Status),
		order.AWBNumber,
		order.AWBCarrier,
		order.InvoiceID,
		order.InvoiceURL,
		order.UpdatedAt,
		nullTime(order.CanceledAt),
		nullTime(order.FulfilledAt),
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order         domain.Order
		customerRaw   []byte
		paymentMethod string
		status        string
		canceledAt    sql.NullTime
		fulfilledAt   sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.Number,
		&customerRaw,
		&paymentMethod,
		&status,
		&order.Currency,
		&order.SubtotalMinor,
		&order.ShippingMinor,
		&order.DiscountMinor,
		&order.AmountMinor,
		&order.AWBNumber,
		&order.AWBCarrier,
		&order.InvoiceID,
		&order.InvoiceURL,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
		&canceledAt,
		&fulfilledAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(customerRaw, &order.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("decode customer of order %s: %w", order.ID, err)
	}
	order.PaymentMethod = domain.PaymentMethod(paymentMethod)
	order.Status = domain.OrderStatus(status)
	if canceledAt.Valid {
		t := canceledAt.Time.UTC()
		order.CanceledAt = &t
	}
	if fulfilledAt.Valid {
		t := fulfilledAt.Time.UTC()
		order.FulfilledAt = &t
	}
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, product_slug, product_title, qty, price_minor, area_sqm, configuration, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			item   domain.OrderItem
			cfgRaw []byte
		)
		if err := rows.Scan(
			&item.ID,
			&item.ProductSlug,
			&item.ProductTitle,
			&item.Qty,
			&item.PriceMinor,
			&item.AreaSqm,
			&cfgRaw,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if err := json.Unmarshal(cfgRaw, &item.Configuration); err != nil {
			return nil, fmt.Errorf("decode item configuration: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order existence: %w", err)
	}
	return exists, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ domain.OrderRepository = (*orderRepository)(nil)
