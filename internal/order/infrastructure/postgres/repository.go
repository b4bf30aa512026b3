package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_name, phone, address, is_shipping, total_cents, payment_proof_url, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.CustomerName, o.Phone, o.Address, o.IsShipping, o.TotalCents, o.PaymentProofURL, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range o.Items {
		batch.Queue(`
			INSERT INTO order_lines (order_id, product_id, product_name, size, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, line.ProductID, line.ProductName, line.Size, line.Quantity, line.PriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status) VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID, eventType, payload, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) UpdateWithOutbox(ctx context.Context, o domain.Order, from domain.Status, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// The status guard makes the transition a compare-and-swap: of two
	// concurrent writers only one matches, the other sees zero rows.
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, payment_proof_url=$3, updated_at=$4 WHERE id=$1 AND status=$5`,
		o.ID, o.Status, o.PaymentProofURL, o.UpdatedAt, from)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var current domain.Status
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, o.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s: %w", o.ID, domain.ErrOrderNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("order %s is %s, expected %s: %w", o.ID, current, from, domain.ErrStatusConflict)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status) VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID, eventType, payload, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_name, phone, address, is_shipping, total_cents, payment_proof_url, status, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Address, &o.IsShipping, &o.TotalCents, &o.PaymentProofURL, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, size, quantity, price_cents FROM order_lines WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Size, &line.Quantity, &line.PriceCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, line)
	}
	return o, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, customer_name, phone, address, is_shipping, total_cents, payment_proof_url, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
}

func (r *Repository) ListByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, customer_name, phone, address, is_shipping, total_cents, payment_proof_url, status, created_at, updated_at
		FROM orders WHERE phone=$1 ORDER BY created_at DESC`, phone)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Address, &o.IsShipping, &o.TotalCents, &o.PaymentProofURL, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := r.pool.Query(ctx,
			`SELECT product_id, product_name, size, quantity, price_cents FROM order_lines WHERE order_id=$1 ORDER BY id`, orders[i].ID)
		if err != nil {
			return nil, err
		}
		for lines.Next() {
			var line domain.OrderLine
			if err := lines.Scan(&line.ProductID, &line.ProductName, &line.Size, &line.Quantity, &line.PriceCents); err != nil {
				lines.Close()
				return nil, err
			}
			orders[i].Items = append(orders[i].Items, line)
		}
		lines.Close()
		if err := lines.Err(); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			is_shipping BOOLEAN NOT NULL,
			total_cents BIGINT NOT NULL,
			payment_proof_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_lines (
			id BIGSERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			size TEXT NOT NULL,
			quantity INT NOT NULL CHECK (quantity > 0),
			price_cents BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS order_lines_order_id_idx ON order_lines (order_id);
		CREATE INDEX IF NOT EXISTS orders_phone_idx ON orders (phone);`)
	return err
}
