package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

// lowStockThreshold is the quantity at or below which a product raises an
// alert.
const lowStockThreshold = 10

func (s *Service) InventoryLogs(ctx context.Context, filter domain.InventoryLogFilter) (domain.InventoryLogPage, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.InventoryLogPage{}, err
	}
	return s.repo.QueryInventoryLogs(ctx, filter)
}

func (s *Service) SupplierLogs(ctx context.Context, filter domain.SupplierLogFilter) (domain.SupplierLogPage, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.SupplierLogPage{}, err
	}
	return s.repo.QuerySupplierLogs(ctx, filter)
}

func (s *Service) VoidLogs(ctx context.Context, filter domain.VoidLogFilter) (domain.VoidLogPage, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.VoidLogPage{}, err
	}
	// Cashiers only see voids raised against their own transactions.
	if !actor.IsAdmin() {
		id := actor.UserID
		filter.CashierID = &id
	}
	return s.repo.QueryVoidLogs(ctx, filter)
}

// StockAlerts computes the current low-stock set and its signature. The
// signature changes whenever the set of alerting products or their quantities
// change, so acknowledged alerts stay quiet until stock moves again.
func (s *Service) StockAlerts(ctx context.Context) (domain.StockAlertsResponse, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.StockAlertsResponse{}, err
	}

	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return domain.StockAlertsResponse{}, err
	}

	alerts := make([]domain.StockAlert, 0)
	for _, product := range products {
		if product.Quantity > lowStockThreshold {
			continue
		}
		alerts = append(alerts, domain.StockAlert{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  product.Quantity,
			Threshold: lowStockThreshold,
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ProductID < alerts[j].ProductID })

	signature := alertSignature(alerts)
	response := domain.StockAlertsResponse{Alerts: alerts, Signature: signature}

	state, err := s.repo.GetStockAlertState(ctx, actor.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.StockAlertsResponse{}, err
	}
	if state != nil && state.Signature == signature {
		response.Seen = true
	}
	return response, nil
}

// AcknowledgeStockAlerts records that the actor has seen the given signature.
func (s *Service) AcknowledgeStockAlerts(ctx context.Context, req domain.StockAlertUpdateRequest) (*domain.StockAlertState, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	return s.repo.SetStockAlertState(ctx, actor.UserID, req.Signature)
}

func (s *Service) MarkNotificationRead(ctx context.Context, key string) (*domain.NotificationRead, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: notification key is required", store.ErrValidation)
	}
	return s.repo.MarkNotificationRead(ctx, actor.UserID, key)
}

func alertSignature(alerts []domain.StockAlert) string {
	var b strings.Builder
	for _, alert := range alerts {
		fmt.Fprintf(&b, "%s=%d;", alert.ProductID, alert.Quantity)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
