package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

func price(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(raw)
}

func createOrder(t *testing.T, svc *Service, cashierID int64) *domain.Order {
	t.Helper()
	order, err := svc.CreateOrder(cashierCtx(cashierID), domain.OrderCreateRequest{
		Items: []domain.OrderItemInput{
			{ProductID: "americano", Quantity: 2, Price: price(t, "85.00")},
			{Name: "Event Cup", Quantity: 1, Price: price(t, "50.00")},
		},
		Payments: []domain.PaymentInput{{Method: "CASH", Amount: price(t, "220.00")}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateOrder(t *testing.T) {
	svc, _ := newTestService(t)

	before, err := svc.GetProduct(adminCtx(), "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}

	order := createOrder(t, svc, 7)
	if !order.Total.Equal(price(t, "220.00")) {
		t.Fatalf("total: %s", order.Total)
	}
	if order.TransactionID == "" {
		t.Fatalf("missing transaction id")
	}
	if order.CashierID == nil || *order.CashierID != 7 {
		t.Fatalf("cashier attribution: %v", order.CashierID)
	}

	after, err := svc.GetProduct(adminCtx(), "americano")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if after.Quantity != before.Quantity-2 {
		t.Fatalf("stock not drained: %d -> %d", before.Quantity, after.Quantity)
	}
}

func TestCreateOrderRejectsUnderpayment(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOrder(cashierCtx(7), domain.OrderCreateRequest{
		Items:    []domain.OrderItemInput{{ProductID: "americano", Quantity: 2, Price: price(t, "85.00")}},
		Payments: []domain.PaymentInput{{Method: "CASH", Amount: price(t, "100.00")}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("underpayment: got %v, want validation error", err)
	}
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOrder(cashierCtx(7), domain.OrderCreateRequest{
		Items:    []domain.OrderItemInput{{ProductID: "ghost", Quantity: 1, Price: price(t, "10.00")}},
		Payments: []domain.PaymentInput{{Method: "CASH", Amount: price(t, "10.00")}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("unknown product: got %v, want validation error", err)
	}
}

func TestGetOrderScopedToCashier(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, 7)

	if _, err := svc.GetOrder(cashierCtx(7), order.TransactionID); err != nil {
		t.Fatalf("own order: %v", err)
	}
	if _, err := svc.GetOrder(cashierCtx(8), order.TransactionID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other cashier: got %v, want ErrForbidden", err)
	}
	if _, err := svc.GetOrder(adminCtx(), order.TransactionID); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestApproveVoid(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, 7)

	void, err := svc.ApproveVoid(adminCtx(), domain.VoidCreateRequest{
		TransactionID: order.TransactionID,
		VoidType:      "full",
		Reason:        "wrong order",
	})
	if err != nil {
		t.Fatalf("void: %v", err)
	}

	if !void.ApprovedAt.Equal(void.RequestedAt) {
		t.Fatalf("approval must share the request stamp: %v vs %v", void.ApprovedAt, void.RequestedAt)
	}
	if void.ManagerID != 1 {
		t.Fatalf("manager attribution: %d", void.ManagerID)
	}
	if void.OrderID == nil || *void.OrderID != order.ID {
		t.Fatalf("order link: %v", void.OrderID)
	}
	if void.CashierID == nil || *void.CashierID != 7 {
		t.Fatalf("cashier snapshot: %v", void.CashierID)
	}
	if len(void.Items) != len(order.Items) {
		t.Fatalf("item snapshot: %d vs %d", len(void.Items), len(order.Items))
	}
	if !void.Amount.Equal(order.Total) {
		t.Fatalf("amount defaulted wrong: %s", void.Amount)
	}
	if void.VoidType != "FULL" {
		t.Fatalf("void type: %s", void.VoidType)
	}
}

func TestApproveVoidNeverMutatesOrder(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, 7)

	if _, err := svc.ApproveVoid(adminCtx(), domain.VoidCreateRequest{
		TransactionID: order.TransactionID,
		VoidType:      "FULL",
	}); err != nil {
		t.Fatalf("void: %v", err)
	}

	reloaded, err := svc.GetOrder(adminCtx(), order.TransactionID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Total.Equal(order.Total) {
		t.Fatalf("order total changed: %s", reloaded.Total)
	}
	for _, item := range reloaded.Items {
		if item.Voided {
			t.Fatalf("void approval flipped an order item")
		}
	}
}

func TestApproveVoidRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, 7)

	if _, err := svc.ApproveVoid(cashierCtx(7), domain.VoidCreateRequest{
		TransactionID: order.TransactionID,
		VoidType:      "FULL",
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier void: got %v, want ErrForbidden", err)
	}
}

func TestApproveVoidWithoutOrderKeepsSnapshot(t *testing.T) {
	svc, _ := newTestService(t)

	void, err := svc.ApproveVoid(adminCtx(), domain.VoidCreateRequest{
		TransactionID: "TXN-gone",
		VoidType:      "PARTIAL",
		Items:         []domain.VoidItem{{Name: "Americano", Quantity: 1, Price: price(t, "85.00")}},
		Amount:        price(t, "85.00"),
	})
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if void.OrderID != nil {
		t.Fatalf("missing order should leave no link")
	}

	if _, err := svc.ApproveVoid(adminCtx(), domain.VoidCreateRequest{
		TransactionID: "TXN-gone",
		VoidType:      "PARTIAL",
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("snapshot-less void against missing order: got %v, want validation error", err)
	}
}

func TestVoidLogsScopedForCashier(t *testing.T) {
	svc, _ := newTestService(t)
	mine := createOrder(t, svc, 7)
	theirs := createOrder(t, svc, 8)

	for _, order := range []*domain.Order{mine, theirs} {
		if _, err := svc.ApproveVoid(adminCtx(), domain.VoidCreateRequest{
			TransactionID: order.TransactionID,
			VoidType:      "FULL",
		}); err != nil {
			t.Fatalf("void: %v", err)
		}
	}

	page, err := svc.VoidLogs(cashierCtx(7), domain.VoidLogFilter{})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("cashier should only see their own voids, got %d", len(page.Data))
	}
	if page.Data[0].CashierID == nil || *page.Data[0].CashierID != 7 {
		t.Fatalf("wrong void visible: %+v", page.Data[0])
	}

	all, err := svc.VoidLogs(adminCtx(), domain.VoidLogFilter{})
	if err != nil {
		t.Fatalf("admin logs: %v", err)
	}
	if len(all.Data) != 2 {
		t.Fatalf("admin should see all voids, got %d", len(all.Data))
	}
}
