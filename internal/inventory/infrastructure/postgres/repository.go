package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetQuantity(ctx context.Context, productID, size string) (int, error) {
	var quantity int
	err := r.pool.QueryRow(ctx,
		`SELECT quantity FROM stock_entries WHERE product_id=$1 AND size=$2`,
		productID, size).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("product %s size %q: %w", productID, size, domain.ErrUnknownSizeEntry)
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

// ApplyDeltas runs every delta inside one transaction. The WHERE guard keeps
// quantity and sold from going negative without an observable check-then-set
// window: the row either matches and is updated, or the whole batch rolls
// back.
func (r *Repository) ApplyDeltas(ctx context.Context, deltas []domain.StockDelta) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, d := range deltas {
		ct, err := tx.Exec(ctx, `
			UPDATE stock_entries
			SET quantity = quantity + $3, sold = sold + $4, updated_at = $5
			WHERE product_id = $1 AND size = $2
			  AND quantity + $3 >= 0 AND sold + $4 >= 0`,
			d.ProductID, d.Size, d.Quantity, d.Sold, time.Now().UTC())
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM stock_entries WHERE product_id=$1 AND size=$2)`,
				d.ProductID, d.Size).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("product %s size %q: %w", d.ProductID, d.Size, domain.ErrUnknownSizeEntry)
			}
			return fmt.Errorf("product %s size %q: %w", d.ProductID, d.Size, domain.ErrInsufficientStock)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) SetAbsolute(ctx context.Context, productID, size string, quantity int) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stock_entries (product_id, size, quantity, sold, created_at, updated_at)
		VALUES ($1,$2,$3,0,$4,$4)
		ON CONFLICT (product_id, size) DO UPDATE SET quantity=$3, updated_at=$4`,
		productID, size, quantity, now)
	return err
}

func (r *Repository) ApplyAdjustmentWithOutbox(ctx context.Context, productID string, sets map[string]int, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for size, quantity := range sets {
		batch.Queue(`
			INSERT INTO stock_entries (product_id, size, quantity, sold, created_at, updated_at)
			VALUES ($1,$2,$3,0,$4,$4)
			ON CONFLICT (product_id, size) DO UPDATE SET quantity=$3, updated_at=$4`,
			productID, size, quantity, now)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status) VALUES ($1,$2,$3,$4,$5,'pending')`,
		"stock", productID, eventType, payload, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureSchema creates the ledger tables if they are missing. The outbox
// table is shared with the order repository; both statements are idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stock_entries (
			product_id TEXT NOT NULL,
			size TEXT NOT NULL,
			quantity INT NOT NULL CHECK (quantity >= 0),
			sold INT NOT NULL DEFAULT 0 CHECK (sold >= 0),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (product_id, size)
		);
		CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload JSONB NOT NULL,
			traceparent TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			relay_id TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`)
	return err
}
