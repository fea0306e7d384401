package service

import (
	"context"
	"fmt"
	"strings"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (*domain.Supplier, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.SupplierStatusActive
	}

	supplier := domain.Supplier{
		Name:          strings.TrimSpace(req.Name),
		Status:        status,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
		Products:      strings.TrimSpace(req.Products),
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     s.now(),
	}

	return s.repo.CreateSupplier(ctx, supplier, domain.SupplierLog{
		Type:         domain.SupplierLogNote,
		Status:       status,
		Notes:        "supplier registered",
		RecordedByID: actorIDPtr(actor),
		CreatedAt:    s.now(),
	})
}

// UpdateSupplier merges the patch and appends a NOTE log summarizing the
// fields that actually changed. A status flip additionally produces a
// STATUS_CHANGE supplier log and a SUPPLIER_STATUS inventory log so both audit
// trails record the transition.
func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierUpdateRequest) (*domain.Supplier, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := supplier.Status
	var changes []string
	patch := func(field string, dst *string, src *string) {
		if src == nil {
			return
		}
		next := strings.TrimSpace(*src)
		if next == *dst {
			return
		}
		changes = append(changes, fmt.Sprintf("%s %q to %q", field, *dst, next))
		*dst = next
	}
	patch("name", &supplier.Name, req.Name)
	patch("contact", &supplier.ContactPerson, req.ContactPerson)
	patch("phone", &supplier.Phone, req.Phone)
	patch("email", &supplier.Email, req.Email)
	patch("address", &supplier.Address, req.Address)
	patch("products", &supplier.Products, req.Products)
	patch("notes", &supplier.Notes, req.Notes)
	if req.Status != nil && *req.Status != supplier.Status {
		changes = append(changes, fmt.Sprintf("status %s to %s", supplier.Status, *req.Status))
		supplier.Status = *req.Status
	}

	var (
		logs   []domain.SupplierLog
		invLog *domain.InventoryLog
	)
	if len(changes) > 0 {
		logs = append(logs, domain.SupplierLog{
			Type:         domain.SupplierLogNote,
			Status:       supplier.Status,
			Notes:        strings.Join(changes, "; "),
			RecordedByID: actorIDPtr(actor),
			CreatedAt:    s.now(),
		})
	}
	if supplier.Status != oldStatus {
		logs = append(logs, domain.SupplierLog{
			Type:   domain.SupplierLogStatusChange,
			Status: supplier.Status,
			Notes:  fmt.Sprintf("status %s to %s", oldStatus, supplier.Status),
			Metadata: map[string]any{
				"previousStatus": oldStatus,
				"nextStatus":     supplier.Status,
			},
			RecordedByID: actorIDPtr(actor),
			CreatedAt:    s.now(),
		})
		invLog = &domain.InventoryLog{
			ProductName: supplier.Name,
			Action:      domain.LogActionSupplierStatus,
			Detail:      fmt.Sprintf("supplier %q status %s to %s", supplier.Name, oldStatus, supplier.Status),
			UserID:      actorIDPtr(actor),
			CreatedAt:   s.now(),
		}
	}

	return s.repo.UpdateSupplier(ctx, *supplier, logs, invLog)
}

// DeleteSupplier deactivates rather than removes, so delivery history keeps
// resolving.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return err
	}
	if supplier.Status == domain.SupplierStatusInactive {
		return fmt.Errorf("%w: supplier %d is already inactive", store.ErrConflict, id)
	}

	return s.repo.DeactivateSupplier(ctx, id, domain.SupplierLog{
		Type:   domain.SupplierLogStatusChange,
		Status: domain.SupplierStatusInactive,
		Notes:  "supplier deactivated",
		Metadata: map[string]any{
			"previousStatus": supplier.Status,
			"nextStatus":     domain.SupplierStatusInactive,
		},
		RecordedByID: actorIDPtr(actor),
		CreatedAt:    s.now(),
	}, domain.InventoryLog{
		ProductName: supplier.Name,
		Action:      domain.LogActionSupplierStatus,
		Detail:      fmt.Sprintf("supplier %q deactivated", supplier.Name),
		UserID:      actorIDPtr(actor),
		CreatedAt:   s.now(),
	})
}

// AddSupplierLog appends a manual log entry. DELIVERY entries go through the
// atomic delivery flow; everything else is a plain append.
func (s *Service) AddSupplierLog(ctx context.Context, supplierID int64, req domain.SupplierLogCreateRequest) (*domain.SupplierLog, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	if strings.EqualFold(req.Type, domain.SupplierLogDelivery) {
		result, err := s.RecordDelivery(ctx, supplierID, req)
		if err != nil {
			return nil, err
		}
		return &result.SupplierLog, nil
	}
	// Status transitions must flow through UpdateSupplier, which writes the
	// paired SUPPLIER_STATUS inventory log.
	if strings.EqualFold(req.Type, domain.SupplierLogStatusChange) {
		return nil, fmt.Errorf("%w: status changes go through the supplier update", store.ErrValidation)
	}

	entry := domain.SupplierLog{
		SupplierID:   supplierID,
		Type:         strings.ToUpper(strings.TrimSpace(req.Type)),
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		Notes:        strings.TrimSpace(req.Notes),
		Metadata:     req.Metadata,
		RecordedByID: actorIDPtr(actor),
		CreatedAt:    s.now(),
	}
	if req.ProductID != "" {
		productID := req.ProductID
		entry.ProductID = &productID
		if product, err := s.repo.GetProduct(ctx, productID); err == nil {
			entry.ProductName = product.Name
		}
	}
	return s.repo.AppendSupplierLog(ctx, entry)
}

// RecordDelivery runs the atomic delivery flow: stock increment, inventory
// log and cross-linked supplier log commit together or not at all.
func (s *Service) RecordDelivery(ctx context.Context, supplierID int64, req domain.SupplierLogCreateRequest) (*store.SupplierDeliveryResult, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("%w: delivery requires a productId", store.ErrValidation)
	}
	if req.Quantity == nil || *req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: delivery quantity must be positive", store.ErrValidation)
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost must not be negative", store.ErrValidation)
	}

	return s.repo.CreateSupplierDelivery(ctx, store.SupplierDelivery{
		SupplierID:   supplierID,
		ProductID:    req.ProductID,
		Quantity:     *req.Quantity,
		UnitCost:     req.UnitCost,
		Notes:        strings.TrimSpace(req.Notes),
		RecordedByID: actorIDPtr(actor),
	})
}
