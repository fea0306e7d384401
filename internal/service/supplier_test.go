package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

func createSupplier(t *testing.T, svc *Service, name string) *domain.Supplier {
	t.Helper()
	supplier, err := svc.CreateSupplier(adminCtx(), domain.SupplierCreateRequest{
		Name:          name,
		ContactPerson: "Sam",
		Phone:         "0917-000-0000",
	})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return supplier
}

func TestRecordDeliveryAtomicUnit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	before, err := svc.GetProduct(ctx, "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	cost := decimal.RequireFromString("45.00")
	qty := 25
	result, err := svc.RecordDelivery(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type:      domain.SupplierLogDelivery,
		ProductID: "americano",
		Quantity:  &qty,
		UnitCost:  &cost,
		Notes:     "weekly restock",
	})
	if err != nil {
		t.Fatalf("delivery: %v", err)
	}

	if result.NewQuantity != before.Quantity+25 {
		t.Fatalf("quantity: got %d, want %d", result.NewQuantity, before.Quantity+25)
	}
	if result.InventoryLog == nil {
		t.Fatalf("delivery must produce an inventory log")
	}
	if result.InventoryLog.Action != domain.LogActionSupplierDelivery {
		t.Fatalf("inventory action: %s", result.InventoryLog.Action)
	}
	if result.SupplierLog.InventoryLogID == nil || *result.SupplierLog.InventoryLogID != result.InventoryLog.ID {
		t.Fatalf("supplier log not cross-linked: %v", result.SupplierLog.InventoryLogID)
	}
	if result.SupplierLog.Type != domain.SupplierLogDelivery {
		t.Fatalf("supplier log type: %s", result.SupplierLog.Type)
	}
	if got := result.SupplierLog.Metadata["newStock"]; got != result.NewQuantity {
		t.Fatalf("metadata newStock: %v", got)
	}
	if got := result.SupplierLog.Metadata["receivedQuantity"]; got != 25 {
		t.Fatalf("metadata receivedQuantity: %v", got)
	}

	after, err := svc.GetProduct(ctx, "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != result.NewQuantity {
		t.Fatalf("stored quantity %d != result %d", after.Quantity, result.NewQuantity)
	}
}

func TestRecordDeliveryRollsBackOnLogFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	before, err := svc.GetProduct(ctx, "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	repo.FailInventoryLogs = true
	qty := 25
	if _, err := svc.RecordDelivery(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type: domain.SupplierLogDelivery, ProductID: "americano", Quantity: &qty,
	}); err == nil {
		t.Fatalf("delivery must fail when its inventory log cannot be written")
	}
	repo.FailInventoryLogs = false

	after, err := svc.GetProduct(ctx, "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != before.Quantity {
		t.Fatalf("stock leaked from failed delivery: %d -> %d", before.Quantity, after.Quantity)
	}
	page, err := svc.SupplierLogs(ctx, domain.SupplierLogFilter{Type: domain.SupplierLogDelivery})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 0 {
		t.Fatalf("supplier log leaked from failed delivery")
	}
}

func TestRecordDeliveryValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	qty := 10
	if _, err := svc.RecordDelivery(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type: domain.SupplierLogDelivery, Quantity: &qty,
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("missing product: got %v, want validation error", err)
	}

	zero := 0
	if _, err := svc.RecordDelivery(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type: domain.SupplierLogDelivery, ProductID: "americano", Quantity: &zero,
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("zero quantity: got %v, want validation error", err)
	}

	if _, err := svc.RecordDelivery(ctx, 999, domain.SupplierLogCreateRequest{
		Type: domain.SupplierLogDelivery, ProductID: "americano", Quantity: &qty,
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing supplier: got %v, want not found", err)
	}
}

func TestRecordDeliveryToInactiveSupplier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	if err := svc.DeleteSupplier(ctx, supplier.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	qty := 10
	if _, err := svc.RecordDelivery(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type: domain.SupplierLogDelivery, ProductID: "americano", Quantity: &qty,
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("inactive supplier: got %v, want conflict", err)
	}
}

func TestSupplierStatusChangeWritesBothLogs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	inactive := domain.SupplierStatusInactive
	updated, err := svc.UpdateSupplier(ctx, supplier.ID, domain.SupplierUpdateRequest{Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.SupplierStatusInactive {
		t.Fatalf("status: %s", updated.Status)
	}

	supplierLogs, err := svc.SupplierLogs(ctx, domain.SupplierLogFilter{
		SupplierID: &supplier.ID,
		Type:       domain.SupplierLogStatusChange,
	})
	if err != nil {
		t.Fatalf("supplier logs: %v", err)
	}
	if len(supplierLogs.Data) != 1 {
		t.Fatalf("want 1 status change log, got %d", len(supplierLogs.Data))
	}
	if got := supplierLogs.Data[0].Metadata["previousStatus"]; got != domain.SupplierStatusActive {
		t.Fatalf("metadata previousStatus: %v", got)
	}

	invLogs, err := svc.InventoryLogs(ctx, domain.InventoryLogFilter{Search: "Bean Traders"})
	if err != nil {
		t.Fatalf("inventory logs: %v", err)
	}
	if len(invLogs.Data) != 1 || invLogs.Data[0].Action != domain.LogActionSupplierStatus {
		t.Fatalf("expected one SUPPLIER_STATUS inventory log, got %+v", invLogs.Data)
	}
}

func TestUpdateSupplierWritesFieldDiffNote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	phone := "0917-111-1111"
	if _, err := svc.UpdateSupplier(ctx, supplier.ID, domain.SupplierUpdateRequest{Phone: &phone}); err != nil {
		t.Fatalf("update: %v", err)
	}

	notes, err := svc.SupplierLogs(ctx, domain.SupplierLogFilter{
		SupplierID: &supplier.ID,
		Type:       domain.SupplierLogNote,
	})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(notes.Data) != 2 {
		t.Fatalf("want creation note plus field diff note, got %d", len(notes.Data))
	}
	if diff := notes.Data[0].Notes; !strings.Contains(diff, "phone") {
		t.Fatalf("diff note should name the changed field: %q", diff)
	}

	statusLogs, err := svc.SupplierLogs(ctx, domain.SupplierLogFilter{
		SupplierID: &supplier.ID,
		Type:       domain.SupplierLogStatusChange,
	})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(statusLogs.Data) != 0 {
		t.Fatalf("profile edit must not log a status change")
	}

	// Re-sending the same value changes nothing, so no further note appears.
	if _, err := svc.UpdateSupplier(ctx, supplier.ID, domain.SupplierUpdateRequest{Phone: &phone}); err != nil {
		t.Fatalf("noop update: %v", err)
	}
	notes, err = svc.SupplierLogs(ctx, domain.SupplierLogFilter{
		SupplierID: &supplier.ID,
		Type:       domain.SupplierLogNote,
	})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(notes.Data) != 2 {
		t.Fatalf("noop update must not append a note, got %d", len(notes.Data))
	}
}

func TestDeleteSupplierIsSoft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	if err := svc.DeleteSupplier(ctx, supplier.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	kept, err := svc.GetSupplier(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("deactivated supplier must stay readable: %v", err)
	}
	if kept.Status != domain.SupplierStatusInactive {
		t.Fatalf("status: %s", kept.Status)
	}

	if err := svc.DeleteSupplier(ctx, supplier.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("double delete: got %v, want conflict", err)
	}
}

func TestAddSupplierLogRoutesDeliveries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	supplier := createSupplier(t, svc, "Bean Traders")

	qty := 5
	entry, err := svc.AddSupplierLog(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type:      "delivery",
		ProductID: "americano",
		Quantity:  &qty,
	})
	if err != nil {
		t.Fatalf("add log: %v", err)
	}
	if entry.Type != domain.SupplierLogDelivery || entry.InventoryLogID == nil {
		t.Fatalf("delivery not routed through atomic flow: %+v", entry)
	}

	note, err := svc.AddSupplierLog(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type:  "note",
		Notes: "prefers morning deliveries",
	})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if note.Type != domain.SupplierLogNote || note.InventoryLogID != nil {
		t.Fatalf("note should be a plain append: %+v", note)
	}

	if _, err := svc.AddSupplierLog(ctx, supplier.ID, domain.SupplierLogCreateRequest{
		Type: "STATUS_CHANGE",
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("direct status change: got %v, want validation error", err)
	}
}
