package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

const supplierColumns = `id, name, status, COALESCE(contact_person, ''), COALESCE(phone, ''),
	COALESCE(email, ''), COALESCE(address, ''), COALESCE(products, ''), COALESCE(notes, ''), created_at`

func scanSupplier(row interface{ Scan(...any) error }) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := row.Scan(&supplier.ID, &supplier.Name, &supplier.Status,
		&supplier.ContactPerson, &supplier.Phone, &supplier.Email,
		&supplier.Address, &supplier.Products, &supplier.Notes, &supplier.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0)
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *supplier)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	return scanSupplier(row)
}

func insertSupplierLogTx(ctx context.Context, q execer, entry domain.SupplierLog) (*domain.SupplierLog, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	metadata, err := jsonOrNil(entry.Metadata)
	if err != nil {
		return nil, err
	}
	err = q.QueryRowContext(ctx, `
		INSERT INTO supplier_logs (
			supplier_id, type, product_id, product_name, quantity, unit_cost,
			status, notes, metadata, inventory_log_id, recorded_by_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, entry.SupplierID, entry.Type, strOrNil(entry.ProductID), nullIfEmpty(entry.ProductName),
		intOrNil(entry.Quantity), decOrNil(entry.UnitCost), nullIfEmpty(entry.Status),
		nullIfEmpty(entry.Notes), metadata, int64OrNil(entry.InventoryLogID),
		int64OrNil(entry.RecordedByID), entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, classify(err)
	}
	return &entry, nil
}

func (s *Store) AppendSupplierLog(ctx context.Context, entry domain.SupplierLog) (*domain.SupplierLog, error) {
	return insertSupplierLogTx(ctx, s.db, entry)
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier, log domain.SupplierLog) (*domain.Supplier, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO suppliers (name, status, contact_person, phone, email, address, products, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, supplier.Name, supplier.Status, nullIfEmpty(supplier.ContactPerson),
		nullIfEmpty(supplier.Phone), nullIfEmpty(supplier.Email), nullIfEmpty(supplier.Address),
		nullIfEmpty(supplier.Products), nullIfEmpty(supplier.Notes), supplier.CreatedAt).Scan(&supplier.ID)
	if err != nil {
		return nil, classify(err)
	}

	log.SupplierID = supplier.ID
	if _, err := insertSupplierLogTx(ctx, tx, log); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier, logs []domain.SupplierLog, invLog *domain.InventoryLog) (*domain.Supplier, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE suppliers
		SET name = $2, status = $3, contact_person = $4, phone = $5, email = $6,
			address = $7, products = $8, notes = $9, updated_at = now()
		WHERE id = $1
	`, supplier.ID, supplier.Name, supplier.Status, nullIfEmpty(supplier.ContactPerson),
		nullIfEmpty(supplier.Phone), nullIfEmpty(supplier.Email), nullIfEmpty(supplier.Address),
		nullIfEmpty(supplier.Products), nullIfEmpty(supplier.Notes))
	if err != nil {
		return nil, classify(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, store.ErrNotFound
	}

	for _, entry := range logs {
		entry.SupplierID = supplier.ID
		if _, err := insertSupplierLogTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}
	if invLog != nil {
		s.appendInventoryLogTx(ctx, tx, *invLog)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSupplier(ctx, supplier.ID)
}

// DeactivateSupplier marks the supplier INACTIVE. The row is kept so delivery
// history stays resolvable.
func (s *Store) DeactivateSupplier(ctx context.Context, id int64, log domain.SupplierLog, invLog domain.InventoryLog) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE suppliers SET status = $2, updated_at = now() WHERE id = $1
	`, id, domain.SupplierStatusInactive)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}

	log.SupplierID = id
	if _, err := insertSupplierLogTx(ctx, tx, log); err != nil {
		return err
	}
	s.appendInventoryLogTx(ctx, tx, invLog)

	return tx.Commit()
}

// CreateSupplierDelivery applies a delivery as one atomic unit: the product
// stock increment, the inventory log and the supplier log either all commit or
// none do. The supplier log carries the inventory log id so the two sides of
// the event stay cross-linked.
func (s *Store) CreateSupplierDelivery(ctx context.Context, delivery store.SupplierDelivery) (*store.SupplierDeliveryResult, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	supplier, err := scanSupplier(tx.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1 FOR UPDATE`, delivery.SupplierID))
	if err != nil {
		return nil, err
	}
	if supplier.Status != domain.SupplierStatusActive {
		return nil, fmt.Errorf("%w: supplier %d is inactive", store.ErrConflict, supplier.ID)
	}

	var (
		productName string
		category    string
		active      bool
		rawPrice    sql.NullString
		newQuantity int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT p.name, c.name, p.active, p.price
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
		FOR UPDATE OF p
	`, delivery.ProductID).Scan(&productName, &category, &active, &rawPrice)
	if err != nil {
		return nil, classify(err)
	}
	if !active {
		return nil, fmt.Errorf("%w: product %q is archived", store.ErrConflict, delivery.ProductID)
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE products SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING quantity
	`, delivery.ProductID, delivery.Quantity).Scan(&newQuantity)
	if err != nil {
		return nil, classify(err)
	}

	productID := delivery.ProductID
	stock := newQuantity
	detail := fmt.Sprintf("delivery of %d from %s", delivery.Quantity, supplier.Name)
	if delivery.Notes != "" {
		detail += ": " + delivery.Notes
	}
	price := scanDecPtr(rawPrice)
	invLog, err := insertInventoryLog(ctx, tx, domain.InventoryLog{
		ProductID:   &productID,
		ProductName: productName,
		Action:      domain.LogActionSupplierDelivery,
		Detail:      detail,
		Stock:       &stock,
		OldPrice:    price,
		NewPrice:    price,
		Category:    category,
		UserID:      delivery.RecordedByID,
	})
	if err != nil {
		return nil, err
	}

	quantity := delivery.Quantity
	metadata := map[string]any{
		"previousStock":    newQuantity - delivery.Quantity,
		"newStock":         newQuantity,
		"receivedQuantity": delivery.Quantity,
	}
	if delivery.UnitCost != nil {
		metadata["unitCost"] = delivery.UnitCost.String()
	}
	supplierLog, err := insertSupplierLogTx(ctx, tx, domain.SupplierLog{
		SupplierID:     supplier.ID,
		Type:           domain.SupplierLogDelivery,
		ProductID:      &productID,
		ProductName:    productName,
		Quantity:       &quantity,
		UnitCost:       delivery.UnitCost,
		Notes:          delivery.Notes,
		Metadata:       metadata,
		InventoryLogID: &invLog.ID,
		RecordedByID:   delivery.RecordedByID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &store.SupplierDeliveryResult{
		SupplierLog:  *supplierLog,
		InventoryLog: invLog,
		NewQuantity:  newQuantity,
	}, nil
}
