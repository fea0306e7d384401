package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cafepos/backend/internal/domain"
)

const (
	defaultTake = 50
	maxTake     = 200
)

func clampTake(take int) int {
	if take <= 0 {
		return defaultTake
	}
	if take > maxTake {
		return maxTake
	}
	return take
}

// whereBuilder accumulates positional conditions. Log ids are monotonic, so
// descending id order doubles as recency order and backs the cursor contract.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(format string, val any) {
	w.args = append(w.args, val)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func nextCursor[T any](data []T, take int, lastID int64) *int64 {
	if len(data) < take {
		return nil
	}
	return &lastID
}

func (s *Store) QueryInventoryLogs(ctx context.Context, filter domain.InventoryLogFilter) (domain.InventoryLogPage, error) {
	take := clampTake(filter.Take)
	var where whereBuilder
	if filter.Cursor > 0 {
		where.add("id < $%d", filter.Cursor)
	}
	if filter.From != nil {
		where.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("created_at <= $%d", *filter.To)
	}
	if filter.Search != "" {
		where.add("(product_name ILIKE $%[1]d OR COALESCE(detail, '') ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.UserID != nil {
		where.add("user_id = $%d", *filter.UserID)
	}
	if filter.ProductID != "" {
		where.add("product_id = $%d", filter.ProductID)
	}

	query := fmt.Sprintf(`
		SELECT id, product_id, product_name, action, COALESCE(detail, ''),
			stock, old_price, new_price, COALESCE(category, ''), user_id, created_at
		FROM inventory_logs%s
		ORDER BY id DESC
		LIMIT %d
	`, where.clause(), take)

	rows, err := s.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return domain.InventoryLogPage{}, err
	}
	defer rows.Close()

	page := domain.InventoryLogPage{Data: make([]domain.InventoryLog, 0, take)}
	for rows.Next() {
		var (
			entry     domain.InventoryLog
			productID sql.NullString
			stock     sql.NullInt64
			oldPrice  sql.NullString
			newPrice  sql.NullString
			userID    sql.NullInt64
		)
		if err := rows.Scan(&entry.ID, &productID, &entry.ProductName, &entry.Action,
			&entry.Detail, &stock, &oldPrice, &newPrice, &entry.Category,
			&userID, &entry.CreatedAt); err != nil {
			return domain.InventoryLogPage{}, err
		}
		entry.ProductID = scanStrPtr(productID)
		entry.Stock = scanIntPtr(stock)
		entry.OldPrice = scanDecPtr(oldPrice)
		entry.NewPrice = scanDecPtr(newPrice)
		entry.UserID = scanInt64Ptr(userID)
		entry.CreatedAt = entry.CreatedAt.UTC()
		page.Data = append(page.Data, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.InventoryLogPage{}, err
	}

	if len(page.Data) > 0 {
		page.NextCursor = nextCursor(page.Data, take, page.Data[len(page.Data)-1].ID)
	}
	return page, nil
}

func (s *Store) QuerySupplierLogs(ctx context.Context, filter domain.SupplierLogFilter) (domain.SupplierLogPage, error) {
	take := clampTake(filter.Take)
	var where whereBuilder
	if filter.Cursor > 0 {
		where.add("id < $%d", filter.Cursor)
	}
	if filter.From != nil {
		where.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("created_at <= $%d", *filter.To)
	}
	if filter.Search != "" {
		where.add("(COALESCE(product_name, '') ILIKE $%[1]d OR COALESCE(notes, '') ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.SupplierID != nil {
		where.add("supplier_id = $%d", *filter.SupplierID)
	}
	if filter.Type != "" {
		where.add("type = $%d", filter.Type)
	}

	query := fmt.Sprintf(`
		SELECT id, supplier_id, type, product_id, COALESCE(product_name, ''),
			quantity, unit_cost, COALESCE(status, ''), COALESCE(notes, ''),
			metadata, inventory_log_id, recorded_by_id, created_at
		FROM supplier_logs%s
		ORDER BY id DESC
		LIMIT %d
	`, where.clause(), take)

	rows, err := s.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return domain.SupplierLogPage{}, err
	}
	defer rows.Close()

	page := domain.SupplierLogPage{Data: make([]domain.SupplierLog, 0, take)}
	for rows.Next() {
		entry, err := scanSupplierLog(rows)
		if err != nil {
			return domain.SupplierLogPage{}, err
		}
		page.Data = append(page.Data, *entry)
	}
	if err := rows.Err(); err != nil {
		return domain.SupplierLogPage{}, err
	}

	if len(page.Data) > 0 {
		page.NextCursor = nextCursor(page.Data, take, page.Data[len(page.Data)-1].ID)
	}
	return page, nil
}

func scanSupplierLog(row interface{ Scan(...any) error }) (*domain.SupplierLog, error) {
	var (
		entry          domain.SupplierLog
		productID      sql.NullString
		quantity       sql.NullInt64
		unitCost       sql.NullString
		metadata       []byte
		inventoryLogID sql.NullInt64
		recordedByID   sql.NullInt64
	)
	if err := row.Scan(&entry.ID, &entry.SupplierID, &entry.Type, &productID,
		&entry.ProductName, &quantity, &unitCost, &entry.Status, &entry.Notes,
		&metadata, &inventoryLogID, &recordedByID, &entry.CreatedAt); err != nil {
		return nil, classify(err)
	}
	entry.ProductID = scanStrPtr(productID)
	entry.Quantity = scanIntPtr(quantity)
	entry.UnitCost = scanDecPtr(unitCost)
	unmarshalInto(metadata, &entry.Metadata)
	entry.InventoryLogID = scanInt64Ptr(inventoryLogID)
	entry.RecordedByID = scanInt64Ptr(recordedByID)
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func (s *Store) QueryVoidLogs(ctx context.Context, filter domain.VoidLogFilter) (domain.VoidLogPage, error) {
	take := clampTake(filter.Take)
	var where whereBuilder
	if filter.Cursor > 0 {
		where.add("id < $%d", filter.Cursor)
	}
	if filter.From != nil {
		where.add("approved_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("approved_at <= $%d", *filter.To)
	}
	if filter.Search != "" {
		where.add("(transaction_id ILIKE $%[1]d OR void_id ILIKE $%[1]d OR COALESCE(reason, '') ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.VoidType != "" {
		where.add("void_type = $%d", filter.VoidType)
	}
	if filter.CashierID != nil {
		where.add("cashier_id = $%d", *filter.CashierID)
	}
	if filter.ManagerID != nil {
		where.add("manager_id = $%d", *filter.ManagerID)
	}

	query := fmt.Sprintf(`
		SELECT id, void_id, transaction_id, order_id, void_type, items, amount,
			cashier_id, manager_id, COALESCE(reason, ''), COALESCE(notes, ''),
			requested_at, approved_at
		FROM void_logs%s
		ORDER BY id DESC
		LIMIT %d
	`, where.clause(), take)

	rows, err := s.db.QueryContext(ctx, query, where.args...)
	if err != nil {
		return domain.VoidLogPage{}, err
	}
	defer rows.Close()

	page := domain.VoidLogPage{Data: make([]domain.VoidLog, 0, take)}
	for rows.Next() {
		var (
			entry     domain.VoidLog
			orderID   sql.NullInt64
			items     []byte
			cashierID sql.NullInt64
		)
		if err := rows.Scan(&entry.ID, &entry.VoidID, &entry.TransactionID, &orderID,
			&entry.VoidType, &items, &entry.Amount, &cashierID, &entry.ManagerID,
			&entry.Reason, &entry.Notes, &entry.RequestedAt, &entry.ApprovedAt); err != nil {
			return domain.VoidLogPage{}, err
		}
		entry.OrderID = scanInt64Ptr(orderID)
		unmarshalInto(items, &entry.Items)
		entry.CashierID = scanInt64Ptr(cashierID)
		entry.RequestedAt = entry.RequestedAt.UTC()
		entry.ApprovedAt = entry.ApprovedAt.UTC()
		page.Data = append(page.Data, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.VoidLogPage{}, err
	}

	if len(page.Data) > 0 {
		page.NextCursor = nextCursor(page.Data, take, page.Data[len(page.Data)-1].ID)
	}
	return page, nil
}
