package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

func TestCreateProductWritesAuditLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	product, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:         "Matcha Latte",
		SKU:          "COF-MAT",
		Price:        decimal.RequireFromString("120.00"),
		Quantity:     30,
		CategoryName: "Coffee",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.ID != "cof-mat" {
		t.Fatalf("id should derive from sku, got %q", product.ID)
	}

	page, err := svc.InventoryLogs(ctx, domain.InventoryLogFilter{Search: "Matcha"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("want 1 log, got %d", len(page.Data))
	}
	entry := page.Data[0]
	if entry.Action != domain.LogActionAdd {
		t.Fatalf("action: %s", entry.Action)
	}
	if entry.Stock == nil || *entry.Stock != 30 {
		t.Fatalf("stock snapshot: %v", entry.Stock)
	}
	if entry.Category != "Coffee" {
		t.Fatalf("category snapshot: %q", entry.Category)
	}
	if entry.UserID == nil || *entry.UserID != 1 {
		t.Fatalf("actor attribution: %v", entry.UserID)
	}
}

func TestCreateProductSurvivesLogFailure(t *testing.T) {
	svc, repo := newTestService(t)
	repo.FailInventoryLogs = true

	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:         "Flat White",
		Price:        decimal.RequireFromString("115.00"),
		Quantity:     10,
		CategoryName: "Coffee",
	})
	if err != nil {
		t.Fatalf("create should succeed despite log failure: %v", err)
	}

	repo.FailInventoryLogs = false
	if _, err := svc.GetProduct(adminCtx(), product.ID); err != nil {
		t.Fatalf("product missing after log failure: %v", err)
	}
	page, err := svc.InventoryLogs(adminCtx(), domain.InventoryLogFilter{Search: "Flat White"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 0 {
		t.Fatalf("log should have been dropped, got %d entries", len(page.Data))
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Orphan", Price: decimal.RequireFromString("10.00"),
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("missing category: got %v, want validation error", err)
	}

	if _, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Cheap", Price: decimal.RequireFromString("-1.00"), CategoryName: "Coffee",
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("negative price: got %v, want validation error", err)
	}

	if _, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Americano", Price: decimal.RequireFromString("85.00"), CategoryName: "Coffee",
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate id: got %v, want conflict", err)
	}
}

func TestUpdateProductPriceAndStockLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	newPrice := decimal.RequireFromString("95.00")
	newQty := 42
	if _, err := svc.UpdateProduct(ctx, "americano", domain.ProductUpdateRequest{
		Price:    &newPrice,
		Quantity: &newQty,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	page, err := svc.InventoryLogs(ctx, domain.InventoryLogFilter{ProductID: "americano"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("want 1 log, got %d", len(page.Data))
	}
	entry := page.Data[0]
	if entry.Action != domain.LogActionUpdate {
		t.Fatalf("action: %s", entry.Action)
	}
	if entry.OldPrice == nil || !entry.OldPrice.Equal(decimal.RequireFromString("85.00")) {
		t.Fatalf("old price: %v", entry.OldPrice)
	}
	if entry.NewPrice == nil || !entry.NewPrice.Equal(newPrice) {
		t.Fatalf("new price: %v", entry.NewPrice)
	}
	if entry.Stock == nil || *entry.Stock != newQty {
		t.Fatalf("stock: %v", entry.Stock)
	}
}

func TestDeleteProductArchives(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	if err := svc.DeleteProduct(ctx, "americano"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	product, err := svc.GetProduct(ctx, "americano")
	if err != nil {
		t.Fatalf("archived product must stay readable: %v", err)
	}
	if product.Active {
		t.Fatalf("product still active")
	}

	products, err := svc.ListProducts(cashierCtx(5), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, p := range products {
		if p.ID == "americano" {
			t.Fatalf("archived product visible to cashier")
		}
	}
}

func TestDeleteCategoryReassignMovesToFallback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	fallback, err := svc.DeleteCategory(ctx, "pastries", domain.CategoryDeleteReassign)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fallback == nil || fallback.Name != domain.FallbackCategoryName {
		t.Fatalf("fallback: %+v", fallback)
	}
	if !fallback.Active {
		t.Fatalf("fallback with products should be active")
	}

	product, err := svc.GetProduct(ctx, "butter-croissant")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.CategoryID != fallback.ID {
		t.Fatalf("product not reassigned: %s", product.CategoryID)
	}

	source, err := svc.GetCategory(ctx, "pastries")
	if err != nil {
		t.Fatalf("source category: %v", err)
	}
	if source.Active {
		t.Fatalf("source category should be deactivated")
	}
}

func TestFallbackAutoDeactivatesWhenEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	fallback, err := svc.DeleteCategory(ctx, "snacks", domain.CategoryDeleteReassign)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Archive everything that landed in the fallback; it must go quiet.
	products, err := svc.ListProducts(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, product := range products {
		if product.CategoryID == fallback.ID && product.Active {
			if err := svc.DeleteProduct(ctx, product.ID); err != nil {
				t.Fatalf("archive %s: %v", product.ID, err)
			}
		}
	}

	refreshed, err := svc.GetCategory(ctx, fallback.ID)
	if err != nil {
		t.Fatalf("get fallback: %v", err)
	}
	if refreshed.Active {
		t.Fatalf("empty fallback should be inactive")
	}
}

func TestDeleteCategoryItemsArchivesProducts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.DeleteCategory(ctx, "meals", domain.CategoryDeleteItems); err != nil {
		t.Fatalf("delete: %v", err)
	}

	product, err := svc.GetProduct(ctx, "garden-salad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if product.Active {
		t.Fatalf("product should be archived with its category")
	}

	page, err := svc.InventoryLogs(ctx, domain.InventoryLogFilter{ProductID: "garden-salad"})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Action != domain.LogActionDelete {
		t.Fatalf("expected one DELETE log, got %+v", page.Data)
	}
}

func TestDeleteCategoryUnknownMode(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.DeleteCategory(adminCtx(), "coffee", "purge"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("unknown mode: got %v, want validation error", err)
	}
	if _, err := svc.DeleteCategory(adminCtx(), "nope", domain.CategoryDeleteItems); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing category: got %v, want not found", err)
	}
}
