package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/menu"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// SupplierDelivery is the input for the atomic delivery flow: stock increment,
// InventoryLog append and cross-linked SupplierLog in one unit of work.
type SupplierDelivery struct {
	SupplierID   int64
	ProductID    string
	Quantity     int
	UnitCost     *decimal.Decimal
	Notes        string
	RecordedByID *int64
}

type SupplierDeliveryResult struct {
	SupplierLog  domain.SupplierLog
	InventoryLog *domain.InventoryLog
	NewQuantity  int
}

// ResetPlan is a normalized bulk-reset request. Scope implication rules are
// resolved by the service before the plan reaches the store; the store only
// executes the plan atomically.
type ResetPlan struct {
	Transactions bool
	Voids        bool
	Users        bool
	Categories   bool
	Products     bool
	Stock        bool
	StockQty     int
	KeepUserID   int64
	ActorID      *int64
	Seed         []menu.CategorySeed
}

// Repository is the persistence boundary. Every method that mutates more than
// one row executes as a single atomic unit; no partial state is observable.
type Repository interface {
	// Catalog: categories.
	ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	FindOrCreateCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	DeleteCategoryItems(ctx context.Context, id string) error
	DeleteCategoryReassign(ctx context.Context, id string) (*domain.Category, error)

	// Catalog: products. The accompanying InventoryLog is appended in the same
	// atomic unit; a nil log in the result means the append failed and was
	// deliberately swallowed (best-effort audit contract).
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error)
	UpdateProduct(ctx context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error)
	ArchiveProduct(ctx context.Context, id string, log domain.InventoryLog) (*domain.InventoryLog, error)

	// Audit log family.
	AppendInventoryLog(ctx context.Context, log domain.InventoryLog) (*domain.InventoryLog, error)
	QueryInventoryLogs(ctx context.Context, filter domain.InventoryLogFilter) (domain.InventoryLogPage, error)
	QuerySupplierLogs(ctx context.Context, filter domain.SupplierLogFilter) (domain.SupplierLogPage, error)
	QueryVoidLogs(ctx context.Context, filter domain.VoidLogFilter) (domain.VoidLogPage, error)

	// Suppliers.
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier, log domain.SupplierLog) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier, logs []domain.SupplierLog, invLog *domain.InventoryLog) (*domain.Supplier, error)
	DeactivateSupplier(ctx context.Context, id int64, log domain.SupplierLog, invLog domain.InventoryLog) error
	AppendSupplierLog(ctx context.Context, log domain.SupplierLog) (*domain.SupplierLog, error)
	CreateSupplierDelivery(ctx context.Context, delivery SupplierDelivery) (*SupplierDeliveryResult, error)

	// Orders and voids.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrderByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	CreateVoidLog(ctx context.Context, void domain.VoidLog) (*domain.VoidLog, error)

	// Users and sessions.
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpsertUsersByUsername(ctx context.Context, users []domain.User) ([]domain.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	DeleteUser(ctx context.Context, id int64) error
	RecordLogin(ctx context.Context, userID int64, at time.Time) error

	// Per-user alert cursors.
	GetStockAlertState(ctx context.Context, userID int64) (*domain.StockAlertState, error)
	SetStockAlertState(ctx context.Context, userID int64, signature string) (*domain.StockAlertState, error)
	MarkNotificationRead(ctx context.Context, userID int64, key string) (*domain.NotificationRead, error)

	// Bulk reset and analytics.
	BulkReset(ctx context.Context, plan ResetPlan) error
	AdminAnalytics(ctx context.Context, from time.Time, to time.Time) (domain.AdminAnalytics, error)
	CashierAnalytics(ctx context.Context, cashierID int64, from time.Time, to time.Time) (domain.CashierAnalytics, error)
}
