package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/menu"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/xid"
)

// BulkReset executes a normalized reset plan in one serializable transaction.
// Scope implication is the service's job; here the plan is taken literally,
// with child rows removed before their parents.
func (s *Store) BulkReset(ctx context.Context, plan store.ResetPlan) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if plan.Transactions {
		for _, query := range []string{
			`DELETE FROM payments`,
			`DELETE FROM order_items`,
			`DELETE FROM orders`,
		} {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
	}

	if plan.Voids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM void_logs`); err != nil {
			return err
		}
	}

	if plan.Users {
		// Super admin accounts are never swept, regardless of who is acting.
		for _, query := range []string{
			`DELETE FROM stock_alert_states WHERE user_id IN (
				SELECT id FROM users WHERE id <> $1 AND role <> 'SUPER_ADMIN')`,
			`DELETE FROM notification_reads WHERE user_id IN (
				SELECT id FROM users WHERE id <> $1 AND role <> 'SUPER_ADMIN')`,
			`DELETE FROM users WHERE id <> $1 AND role <> 'SUPER_ADMIN'`,
		} {
			if _, err := tx.ExecContext(ctx, query, plan.KeepUserID); err != nil {
				return err
			}
		}
	}

	if plan.Products {
		// Supplier logs survive a product reset; their inventory_log_id FK is
		// nulled by ON DELETE SET NULL and the name snapshot keeps them legible.
		for _, query := range []string{
			`DELETE FROM inventory_logs`,
			`DELETE FROM products`,
		} {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
	}

	if plan.Categories {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return err
		}
	}

	if plan.Products {
		if err := seedCatalogTx(ctx, tx, plan.Seed); err != nil {
			return err
		}
	}

	if plan.Stock {
		if err := s.resetStockTx(ctx, tx, plan.StockQty, plan.ActorID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedCatalogTx(ctx context.Context, tx *sql.Tx, seed []menu.CategorySeed) error {
	for _, category := range seed {
		cat, err := findOrCreateCategoryTx(ctx, tx, category.Name)
		if err != nil {
			return err
		}
		if category.IconURL != "" {
			if _, err := tx.ExecContext(ctx,
				`UPDATE categories SET icon_url = $2, active = TRUE, updated_at = now() WHERE id = $1`,
				cat.ID, category.IconURL); err != nil {
				return err
			}
		}

		for _, product := range category.Products {
			allergens, err := jsonOrNil(product.Allergens)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, name, sku, price, quantity, allergens, description, active, category_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE,$8)
				ON CONFLICT (id) DO NOTHING
			`, xid.Slug(product.Name), product.Name, nullIfEmpty(product.SKU), product.Price,
				product.Quantity, allergens, nullIfEmpty(product.Description), cat.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetStockTx forces every product, archived rows included, to the target
// quantity and leaves one bulk RESET_QUANTITY audit row with no product
// reference.
func (s *Store) resetStockTx(ctx context.Context, tx *sql.Tx, qty int, actorID *int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET quantity = $1, updated_at = now()`, qty)
	if err != nil {
		return err
	}
	touched, _ := res.RowsAffected()

	stock := qty
	_, err = insertInventoryLog(ctx, tx, domain.InventoryLog{
		ProductName: "ALL PRODUCTS",
		Action:      domain.LogActionResetQuantity,
		Detail:      fmt.Sprintf("stock reset to %d across %d products", qty, touched),
		Stock:       &stock,
		UserID:      actorID,
	})
	return err
}
