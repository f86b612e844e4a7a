package repository

import (
	"context"
	"fmt"

	"lenta/parser/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository mirrors fetched products into Postgres. The JSON file is
// always written; this sink is an optional extra.
type ProductRepository interface {
	SaveProducts(ctx context.Context, storeID, categoryCode string, products []domain.Product) error
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r *productRepository) SaveProducts(ctx context.Context, storeID, categoryCode string, products []domain.Product) error {
	for _, p := range products {
		_, err := r.db.Exec(ctx, `
			INSERT INTO products (id, store_id, category_code, name, regular_price, promo_price, brand)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id, store_id) DO UPDATE SET
				category_code = EXCLUDED.category_code,
				name = EXCLUDED.name,
				regular_price = EXCLUDED.regular_price,
				promo_price = EXCLUDED.promo_price,
				brand = EXCLUDED.brand`,
			p.ID, storeID, categoryCode, p.Name, string(p.RegularPrice), string(p.PromoPrice), p.Brand,
		)
		if err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}
	return nil
}
