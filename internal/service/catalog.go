package service

import (
	"context"
	"fmt"
	"strings"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/xid"
)

func (s *Service) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		includeInactive = false
	}
	return s.repo.ListCategories(ctx, includeInactive)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (*domain.Category, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", store.ErrValidation)
	}

	category := domain.Category{
		ID:      xid.Slug(name),
		Name:    name,
		Active:  true,
		IconURL: strings.TrimSpace(req.IconURL),
	}
	return s.repo.CreateCategory(ctx, category)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryUpdateRequest) (*domain.Category, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.IconURL != nil {
		category.IconURL = strings.TrimSpace(*req.IconURL)
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	return s.repo.UpdateCategory(ctx, *category)
}

// DeleteCategory removes a category in one of two modes: "delete-items"
// archives its products, "reassign" moves them to the fallback category.
func (s *Service) DeleteCategory(ctx context.Context, id string, mode string) (*domain.Category, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	switch mode {
	case domain.CategoryDeleteItems:
		return nil, s.repo.DeleteCategoryItems(ctx, id)
	case domain.CategoryDeleteReassign, "":
		return s.repo.DeleteCategoryReassign(ctx, id)
	default:
		return nil, fmt.Errorf("%w: unknown delete mode %q", store.ErrValidation, mode)
	}
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		includeInactive = false
	}
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := s.requireActor(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) resolveCategory(ctx context.Context, categoryID string, categoryName string) (*domain.Category, error) {
	if categoryID != "" {
		return s.repo.GetCategory(ctx, categoryID)
	}
	if categoryName != "" {
		return s.repo.FindOrCreateCategoryByName(ctx, strings.TrimSpace(categoryName))
	}
	return nil, fmt.Errorf("%w: categoryId or categoryName is required", store.ErrValidation)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
	}

	category, err := s.resolveCategory(ctx, req.CategoryID, req.CategoryName)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		if req.SKU != "" {
			id = xid.Slug(req.SKU)
		} else {
			id = xid.Slug(req.Name)
		}
	}
	if id == "" {
		return nil, fmt.Errorf("%w: product id cannot be derived from an empty name", store.ErrValidation)
	}

	product := domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		SKU:         strings.TrimSpace(req.SKU),
		Price:       req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Quantity:    req.Quantity,
		Status:      req.Status,
		Allergens:   req.Allergens,
		Sizes:       req.Sizes,
		Addons:      req.Addons,
		Description: req.Description,
		Active:      true,
		CategoryID:  category.ID,
	}

	stock := product.Quantity
	price := product.Price
	saved, _, err := s.repo.CreateProduct(ctx, product, domain.InventoryLog{
		ProductID:   &product.ID,
		ProductName: product.Name,
		Action:      domain.LogActionAdd,
		Detail:      fmt.Sprintf("added to %q with %d in stock", category.Name, product.Quantity),
		Stock:       &stock,
		NewPrice:    &price,
		Category:    category.Name,
		UserID:      actorIDPtr(actor),
	})
	return saved, err
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		oldPrice = product.Price
		oldQty   = product.Quantity
		changes  []string
	)

	if req.Name != nil && *req.Name != product.Name {
		changes = append(changes, fmt.Sprintf("renamed %q to %q", product.Name, *req.Name))
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Price != nil && !req.Price.Equal(product.Price) {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", store.ErrValidation)
		}
		changes = append(changes, fmt.Sprintf("price %s to %s", product.Price, *req.Price))
		product.Price = *req.Price
	}
	if req.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Quantity != nil && *req.Quantity != product.Quantity {
		changes = append(changes, fmt.Sprintf("stock %d to %d", product.Quantity, *req.Quantity))
		product.Quantity = *req.Quantity
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Allergens != nil {
		product.Allergens = *req.Allergens
	}
	if req.Sizes != nil {
		product.Sizes = *req.Sizes
	}
	if req.Addons != nil {
		product.Addons = *req.Addons
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if req.CategoryID != nil || req.CategoryName != nil {
		categoryID, categoryName := "", ""
		if req.CategoryID != nil {
			categoryID = *req.CategoryID
		}
		if req.CategoryName != nil {
			categoryName = *req.CategoryName
		}
		category, err := s.resolveCategory(ctx, categoryID, categoryName)
		if err != nil {
			return nil, err
		}
		if category.ID != product.CategoryID {
			changes = append(changes, fmt.Sprintf("moved to %q", category.Name))
			product.CategoryID = category.ID
		}
	}

	category, err := s.repo.GetCategory(ctx, product.CategoryID)
	if err != nil {
		return nil, err
	}

	log := domain.InventoryLog{
		ProductID:   &product.ID,
		ProductName: product.Name,
		Action:      domain.LogActionUpdate,
		Detail:      strings.Join(changes, "; "),
		Category:    category.Name,
		UserID:      actorIDPtr(actor),
	}
	if product.Quantity != oldQty {
		stock := product.Quantity
		log.Stock = &stock
	}
	if !product.Price.Equal(oldPrice) {
		newPrice := product.Price
		log.OldPrice = &oldPrice
		log.NewPrice = &newPrice
	}

	saved, _, err := s.repo.UpdateProduct(ctx, *product, log)
	return saved, err
}

// DeleteProduct archives the product. The row is kept so logs and order lines
// keep resolving; a DELETE audit entry records the removal.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	category, err := s.repo.GetCategory(ctx, product.CategoryID)
	if err != nil {
		return err
	}

	stock := product.Quantity
	_, err = s.repo.ArchiveProduct(ctx, id, domain.InventoryLog{
		ProductID:   &product.ID,
		ProductName: product.Name,
		Action:      domain.LogActionDelete,
		Detail:      fmt.Sprintf("removed with %d in stock", product.Quantity),
		Stock:       &stock,
		Category:    category.Name,
		UserID:      actorIDPtr(actor),
	})
	return err
}
