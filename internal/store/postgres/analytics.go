package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
)

const topItemsLimit = 10

func (s *Store) AdminAnalytics(ctx context.Context, from time.Time, to time.Time) (domain.AdminAnalytics, error) {
	result := domain.AdminAnalytics{From: from, To: to, Revenue: decimal.Zero}

	var revenue sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(total)
		FROM orders WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&result.Orders, &revenue)
	if err != nil {
		return domain.AdminAnalytics{}, err
	}
	if parsed := scanDecPtr(revenue); parsed != nil {
		result.Revenue = *parsed
	}

	result.TopItems, err = s.topItems(ctx, from, to, nil)
	if err != nil {
		return domain.AdminAnalytics{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.cashier_id, COALESCE(u.username, ''), COUNT(*), SUM(o.total)
		FROM orders o
		LEFT JOIN users u ON u.id = o.cashier_id
		WHERE o.created_at >= $1 AND o.created_at < $2 AND o.cashier_id IS NOT NULL
		GROUP BY o.cashier_id, u.username
		ORDER BY SUM(o.total) DESC
	`, from, to)
	if err != nil {
		return domain.AdminAnalytics{}, err
	}
	defer rows.Close()

	result.Cashiers = make([]domain.CashierSummary, 0)
	for rows.Next() {
		var summary domain.CashierSummary
		if err := rows.Scan(&summary.CashierID, &summary.Username, &summary.Orders, &summary.Revenue); err != nil {
			return domain.AdminAnalytics{}, err
		}
		result.Cashiers = append(result.Cashiers, summary)
	}
	return result, rows.Err()
}

func (s *Store) CashierAnalytics(ctx context.Context, cashierID int64, from time.Time, to time.Time) (domain.CashierAnalytics, error) {
	result := domain.CashierAnalytics{CashierID: cashierID, From: from, To: to, Revenue: decimal.Zero}

	var revenue sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(total)
		FROM orders WHERE cashier_id = $1 AND created_at >= $2 AND created_at < $3
	`, cashierID, from, to).Scan(&result.Orders, &revenue)
	if err != nil {
		return domain.CashierAnalytics{}, err
	}
	if parsed := scanDecPtr(revenue); parsed != nil {
		result.Revenue = *parsed
	}

	result.TopItems, err = s.topItems(ctx, from, to, &cashierID)
	if err != nil {
		return domain.CashierAnalytics{}, err
	}
	return result, nil
}

// topItems ranks non-voided order lines by sold quantity. Voided lines stay
// in the table but are excluded from the rollup.
func (s *Store) topItems(ctx context.Context, from time.Time, to time.Time, cashierID *int64) ([]domain.TopItem, error) {
	query := `
		SELECT i.name, SUM(i.quantity), SUM(i.quantity * i.price)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2 AND NOT i.voided
	`
	args := []any{from, to}
	if cashierID != nil {
		query += ` AND o.cashier_id = $3`
		args = append(args, *cashierID)
	}
	query += fmt.Sprintf(`
		GROUP BY i.name
		ORDER BY SUM(i.quantity) DESC, i.name
		LIMIT %d`, topItemsLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TopItem, 0, topItemsLimit)
	for rows.Next() {
		var item domain.TopItem
		if err := rows.Scan(&item.ProductName, &item.Quantity, &item.Revenue); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
