package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/xid"
)

const categoryColumns = `id, name, active, COALESCE(icon_url, '')`

func scanCategory(row interface{ Scan(...any) error }) (*domain.Category, error) {
	var cat domain.Category
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Active, &cat.IconURL); err != nil {
		return nil, classify(err)
	}
	return &cat, nil
}

func (s *Store) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// An empty fallback category must never show up as selectable.
	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	return categories, tx.Commit()
}

func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, active, icon_url)
		VALUES ($1, $2, $3, $4)
	`, category.ID, category.Name, category.Active, nullIfEmpty(category.IconURL))
	if err != nil {
		return nil, classify(err)
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $2, active = $3, icon_url = $4, updated_at = now()
		WHERE id = $1
	`, category.ID, category.Name, category.Active, nullIfEmpty(category.IconURL))
	if err != nil {
		return nil, classify(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}
	return &category, nil
}

func (s *Store) FindOrCreateCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cat, err := findOrCreateCategoryTx(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cat, nil
}

func findOrCreateCategoryTx(ctx context.Context, tx *sql.Tx, name string) (*domain.Category, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE lower(name) = lower($1)
	`, name)
	cat, err := scanCategory(row)
	if err == nil {
		return cat, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	created := domain.Category{ID: xid.Slug(name), Name: name, Active: true}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, active) VALUES ($1, $2, TRUE)
	`, created.ID, created.Name); err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

// DeleteCategoryItems archives every product in the category and deactivates
// the category itself. Products are kept as rows so historical logs and order
// lines keep resolving.
func (s *Store) DeleteCategoryItems(ctx context.Context, id string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cat, err := scanCategory(tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return err
	}

	products, err := listProductsTx(ctx, tx, `WHERE category_id = $1 AND active`, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET active = FALSE, updated_at = now() WHERE category_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET active = FALSE, updated_at = now() WHERE id = $1`, id); err != nil {
		return err
	}

	for _, product := range products {
		productID := product.ID
		stock := product.Quantity
		s.appendInventoryLogTx(ctx, tx, domain.InventoryLog{
			ProductID:   &productID,
			ProductName: product.Name,
			Action:      domain.LogActionDelete,
			Detail:      fmt.Sprintf("removed with category %q", cat.Name),
			Stock:       &stock,
			Category:    cat.Name,
		})
	}

	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteCategoryReassign moves the category's products to the fallback
// category, then deactivates the source. Returns the fallback category.
func (s *Store) DeleteCategoryReassign(ctx context.Context, id string) (*domain.Category, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cat, err := scanCategory(tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	fallback, err := findOrCreateCategoryTx(ctx, tx, domain.FallbackCategoryName)
	if err != nil {
		return nil, err
	}
	if fallback.ID == cat.ID {
		return nil, fmt.Errorf("%w: cannot reassign the fallback category into itself", store.ErrValidation)
	}

	products, err := listProductsTx(ctx, tx, `WHERE category_id = $1`, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET category_id = $2, updated_at = now() WHERE category_id = $1`,
		id, fallback.ID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE categories SET active = FALSE, updated_at = now() WHERE id = $1`, id); err != nil {
		return nil, err
	}

	for _, product := range products {
		productID := product.ID
		s.appendInventoryLogTx(ctx, tx, domain.InventoryLog{
			ProductID:   &productID,
			ProductName: product.Name,
			Action:      domain.LogActionUpdate,
			Detail:      fmt.Sprintf("moved from %q to %q", cat.Name, fallback.Name),
			Category:    fallback.Name,
		})
	}

	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetCategory(ctx, fallback.ID)
}

// syncFallbackTx keeps the fallback category active exactly while it holds at
// least one active product.
func (s *Store) syncFallbackTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE categories c
		SET active = EXISTS (
			SELECT 1 FROM products p WHERE p.category_id = c.id AND p.active
		), updated_at = now()
		WHERE lower(c.name) = lower($1)
	`, domain.FallbackCategoryName)
	return err
}

const productColumns = `id, name, COALESCE(sku, ''), price, COALESCE(image_url, ''),
	quantity, COALESCE(status, ''), allergens, sizes, addons,
	COALESCE(description, ''), active, category_id`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var (
		product   domain.Product
		allergens []byte
		sizes     []byte
		addons    []byte
	)
	err := row.Scan(&product.ID, &product.Name, &product.SKU, &product.Price,
		&product.ImageURL, &product.Quantity, &product.Status,
		&allergens, &sizes, &addons,
		&product.Description, &product.Active, &product.CategoryID)
	if err != nil {
		return nil, classify(err)
	}
	unmarshalInto(allergens, &product.Allergens)
	unmarshalInto(sizes, &product.Sizes)
	unmarshalInto(addons, &product.Addons)
	return &product, nil
}

func listProductsTx(ctx context.Context, q execer, where string, args ...any) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ` + strings.TrimSpace(where) + ` ORDER BY name`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	where := ""
	if !includeInactive {
		where = `WHERE active`
	}
	return listProductsTx(ctx, s.db, where)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func insertProductTx(ctx context.Context, tx *sql.Tx, product domain.Product) error {
	allergens, err := jsonOrNil(product.Allergens)
	if err != nil {
		return err
	}
	sizes, err := jsonOrNil(product.Sizes)
	if err != nil {
		return err
	}
	addons, err := jsonOrNil(product.Addons)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (
			id, name, sku, price, image_url, quantity, status,
			allergens, sizes, addons, description, active, category_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, product.ID, product.Name, nullIfEmpty(product.SKU), product.Price,
		nullIfEmpty(product.ImageURL), product.Quantity, nullIfEmpty(product.Status),
		allergens, sizes, addons, nullIfEmpty(product.Description),
		product.Active, product.CategoryID)
	return classify(err)
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertProductTx(ctx, tx, product); err != nil {
		return nil, nil, err
	}
	saved := s.appendInventoryLogTx(ctx, tx, log)

	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &product, saved, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	allergens, err := jsonOrNil(product.Allergens)
	if err != nil {
		return nil, nil, err
	}
	sizes, err := jsonOrNil(product.Sizes)
	if err != nil {
		return nil, nil, err
	}
	addons, err := jsonOrNil(product.Addons)
	if err != nil {
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = $2, sku = $3, price = $4, image_url = $5, quantity = $6,
			status = $7, allergens = $8, sizes = $9, addons = $10,
			description = $11, active = $12, category_id = $13, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, nullIfEmpty(product.SKU), product.Price,
		nullIfEmpty(product.ImageURL), product.Quantity, nullIfEmpty(product.Status),
		allergens, sizes, addons, nullIfEmpty(product.Description),
		product.Active, product.CategoryID)
	if err != nil {
		return nil, nil, classify(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil, store.ErrNotFound
	}

	saved := s.appendInventoryLogTx(ctx, tx, log)

	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &product, saved, nil
}

func (s *Store) ArchiveProduct(ctx context.Context, id string, log domain.InventoryLog) (*domain.InventoryLog, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE products SET active = FALSE, updated_at = now() WHERE id = $1 AND active`, id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}

	saved := s.appendInventoryLogTx(ctx, tx, log)

	if err := s.syncFallbackTx(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}
