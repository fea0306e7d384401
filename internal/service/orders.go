package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/xid"
)

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, input := range req.Items {
		if input.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item price must not be negative", store.ErrValidation)
		}

		item := domain.OrderItem{
			Name:     strings.TrimSpace(input.Name),
			Quantity: input.Quantity,
			Price:    input.Price,
		}
		if input.ProductID != "" {
			product, err := s.repo.GetProduct(ctx, input.ProductID)
			if err != nil {
				return nil, fmt.Errorf("%w: unknown product %q", store.ErrValidation, input.ProductID)
			}
			productID := product.ID
			item.ProductID = &productID
			if item.Name == "" {
				item.Name = product.Name
			}
		}
		if item.Name == "" {
			return nil, fmt.Errorf("%w: order item needs a productId or a name", store.ErrValidation)
		}

		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, item)
	}

	paid := decimal.Zero
	payments := make([]domain.Payment, 0, len(req.Payments))
	for _, input := range req.Payments {
		if input.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: payment amount must not be negative", store.ErrValidation)
		}
		paid = paid.Add(input.Amount)
		payments = append(payments, domain.Payment{Method: input.Method, Amount: input.Amount})
	}
	if paid.LessThan(total) {
		return nil, fmt.Errorf("%w: payments %s do not cover total %s", store.ErrValidation, paid, total)
	}

	cashierID := req.CashierID
	if cashierID == nil {
		cashierID = actorIDPtr(actor)
	}

	return s.repo.CreateOrder(ctx, domain.Order{
		TransactionID: xid.New("TXN"),
		CashierID:     cashierID,
		Total:         total,
		CreatedAt:     s.now(),
		Items:         items,
		Payments:      payments,
	})
}

func (s *Service) GetOrder(ctx context.Context, transactionID string) (*domain.Order, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetOrderByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (order.CashierID == nil || *order.CashierID != actor.UserID) {
		return nil, fmt.Errorf("%w: not your transaction", ErrForbidden)
	}
	return order, nil
}

// ApproveVoid records a void. Approval is not a workflow: the manager's
// request is the approval, so RequestedAt and ApprovedAt carry the same
// stamp and the row is immutable from birth. The order itself is untouched.
func (s *Service) ApproveVoid(ctx context.Context, req domain.VoidCreateRequest) (*domain.VoidLog, error) {
	manager, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	void := domain.VoidLog{
		VoidID:        xid.VoidToken(),
		TransactionID: strings.TrimSpace(req.TransactionID),
		OrderID:       req.OrderID,
		VoidType:      strings.ToUpper(strings.TrimSpace(req.VoidType)),
		Items:         req.Items,
		Amount:        req.Amount,
		CashierID:     req.CashierID,
		ManagerID:     manager.UserID,
		Reason:        strings.TrimSpace(req.Reason),
		Notes:         strings.TrimSpace(req.Notes),
	}

	order, err := s.repo.GetOrderByTransactionID(ctx, void.TransactionID)
	switch {
	case err == nil:
		id := order.ID
		void.OrderID = &id
		if void.CashierID == nil {
			void.CashierID = order.CashierID
		}
		if len(void.Items) == 0 {
			for _, item := range order.Items {
				void.Items = append(void.Items, domain.VoidItem{
					ProductID: item.ProductID,
					Name:      item.Name,
					Quantity:  item.Quantity,
					Price:     item.Price,
				})
			}
		}
		if void.Amount.IsZero() {
			void.Amount = order.Total
		}
	case errors.Is(err, store.ErrNotFound):
		// Voids may reference transactions from before a reset; keep the
		// snapshot the client supplied.
	default:
		return nil, err
	}

	if void.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: void amount must not be negative", store.ErrValidation)
	}
	if len(void.Items) == 0 {
		return nil, fmt.Errorf("%w: void needs at least one item", store.ErrValidation)
	}

	now := s.now()
	void.RequestedAt = now
	void.ApprovedAt = now

	saved, err := s.repo.CreateVoidLog(ctx, void)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("voidId", saved.VoidID).Str("transactionId", saved.TransactionID).
		Int64("managerId", saved.ManagerID).Msg("void approved")
	return saved, nil
}
