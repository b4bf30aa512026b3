package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanakrit-dev/charity-storefront/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, name, type, description, price_cents, image_url, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, p.Type, p.Description, p.PriceCents, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertStock(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `
		UPDATE products SET name=$2, type=$3, description=$4, price_cents=$5, image_url=$6, is_active=$7, updated_at=$8
		WHERE id=$1`,
		p.ID, p.Name, p.Type, p.Description, p.PriceCents, p.ImageURL, p.IsActive, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrProductNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stock_entries WHERE product_id=$1`, p.ID); err != nil {
		return err
	}
	if err := insertStock(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertStock(ctx context.Context, tx pgx.Tx, p domain.Product) error {
	if len(p.Stock) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, entry := range p.Stock {
		batch.Queue(`
			INSERT INTO stock_entries (product_id, size, quantity, sold, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$5)`,
			p.ID, entry.Size, entry.Quantity, entry.Sold, now)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM stock_entries WHERE product_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, type, description, price_cents, image_url, is_active, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Type, &p.Description, &p.PriceCents, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT size, quantity, sold FROM stock_entries WHERE product_id=$1 ORDER BY size`, id)
	if err != nil {
		return domain.Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var entry domain.StockEntry
		if err := rows.Scan(&entry.Size, &entry.Quantity, &entry.Sold); err != nil {
			return domain.Product{}, err
		}
		p.Stock = append(p.Stock, entry)
	}
	return p, rows.Err()
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	query := `
		SELECT id, name, type, description, price_cents, image_url, is_active, created_at, updated_at
		FROM products`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &p.PriceCents, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		stock, err := r.pool.Query(ctx,
			`SELECT size, quantity, sold FROM stock_entries WHERE product_id=$1 ORDER BY size`, products[i].ID)
		if err != nil {
			return nil, err
		}
		for stock.Next() {
			var entry domain.StockEntry
			if err := stock.Scan(&entry.Size, &entry.Quantity, &entry.Sold); err != nil {
				stock.Close()
				return nil, err
			}
			products[i].Stock = append(products[i].Stock, entry)
		}
		stock.Close()
		if err := stock.Err(); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
			image_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`)
	return err
}
