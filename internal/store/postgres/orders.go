package postgres

import (
	"context"
	"database/sql"
	"time"

	"cafepos/backend/internal/domain"
)

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (transaction_id, cashier_id, total, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, order.TransactionID, int64OrNil(order.CashierID), order.Total, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return nil, classify(err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, price, voided)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, order.ID, strOrNil(item.ProductID), item.Name, item.Quantity, item.Price, item.Voided).Scan(&item.ID)
		if err != nil {
			return nil, classify(err)
		}

		// Sales drain stock but never push it negative; unmatched lines are
		// sold as ad-hoc items and skip inventory entirely.
		if item.ProductID != nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET quantity = GREATEST(quantity - $2, 0), updated_at = now()
				WHERE id = $1 AND active
			`, *item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	for i := range order.Payments {
		payment := &order.Payments[i]
		payment.OrderID = order.ID
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = order.CreatedAt
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO payments (order_id, method, amount, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, payment.Method, payment.Amount, payment.CreatedAt).Scan(&payment.ID)
		if err != nil {
			return nil, classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) GetOrderByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	var (
		order     domain.Order
		cashierID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, cashier_id, total, created_at
		FROM orders WHERE transaction_id = $1
	`, transactionID).Scan(&order.ID, &order.TransactionID, &cashierID, &order.Total, &order.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	order.CashierID = scanInt64Ptr(cashierID)
	order.CreatedAt = order.CreatedAt.UTC()

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, price, voided
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	order.Items = make([]domain.OrderItem, 0)
	for itemRows.Next() {
		var (
			item      domain.OrderItem
			productID sql.NullString
		)
		if err := itemRows.Scan(&item.ID, &item.OrderID, &productID, &item.Name,
			&item.Quantity, &item.Price, &item.Voided); err != nil {
			return nil, err
		}
		item.ProductID = scanStrPtr(productID)
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	paymentRows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, method, amount, created_at
		FROM payments WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer paymentRows.Close()

	order.Payments = make([]domain.Payment, 0)
	for paymentRows.Next() {
		var payment domain.Payment
		if err := paymentRows.Scan(&payment.ID, &payment.OrderID, &payment.Method,
			&payment.Amount, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payment.CreatedAt = payment.CreatedAt.UTC()
		order.Payments = append(order.Payments, payment)
	}
	if err := paymentRows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// CreateVoidLog appends the approved void as a pure audit row. Orders, items
// and payments are never touched here; the void log is the record of truth.
func (s *Store) CreateVoidLog(ctx context.Context, void domain.VoidLog) (*domain.VoidLog, error) {
	items, err := jsonOrNil(void.Items)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO void_logs (
			void_id, transaction_id, order_id, void_type, items, amount,
			cashier_id, manager_id, reason, notes, requested_at, approved_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, void.VoidID, void.TransactionID, int64OrNil(void.OrderID), void.VoidType,
		items, void.Amount, int64OrNil(void.CashierID), void.ManagerID,
		nullIfEmpty(void.Reason), nullIfEmpty(void.Notes),
		void.RequestedAt, void.ApprovedAt).Scan(&void.ID)
	if err != nil {
		return nil, classify(err)
	}
	return &void, nil
}
