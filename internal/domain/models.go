package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Roles carried by authenticated actors. SUPER_ADMIN implies ADMIN capability.
const (
	RoleCashier    = "CASHIER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// InventoryLog actions.
const (
	LogActionAdd              = "ADD"
	LogActionUpdate           = "UPDATE"
	LogActionDelete           = "DELETE"
	LogActionResetQuantity    = "RESET_QUANTITY"
	LogActionSupplierDelivery = "SUPPLIER_DELIVERY"
	LogActionSupplierStatus   = "SUPPLIER_STATUS"
)

// SupplierLog types.
const (
	SupplierLogNote         = "NOTE"
	SupplierLogDelivery     = "DELIVERY"
	SupplierLogStatusChange = "STATUS_CHANGE"
)

const (
	SupplierStatusActive   = "ACTIVE"
	SupplierStatusInactive = "INACTIVE"
)

// FallbackCategoryName is the catch-all category products move to when their
// own category is deleted in reassign mode. It is auto-deactivated while empty.
const FallbackCategoryName = "Others"

type Actor struct {
	UserID   int64
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	IconURL string `json:"iconUrl,omitempty"`
}

type ProductSize struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

type ProductAddon struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"`
	Status      string          `json:"status,omitempty"`
	Allergens   []string        `json:"allergens,omitempty"`
	Sizes       []ProductSize   `json:"sizes,omitempty"`
	Addons      []ProductAddon  `json:"addons,omitempty"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	CategoryID  string          `json:"categoryId"`
}

// InventoryLog is append-only; rows are never updated and only a bulk reset
// removes them. IDs are monotonic and back the cursor pagination contract.
type InventoryLog struct {
	ID          int64            `json:"id"`
	ProductID   *string          `json:"productId,omitempty"`
	ProductName string           `json:"productName"`
	Action      string           `json:"action"`
	Detail      string           `json:"detail,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	OldPrice    *decimal.Decimal `json:"oldPrice,omitempty"`
	NewPrice    *decimal.Decimal `json:"newPrice,omitempty"`
	Category    string           `json:"category,omitempty"`
	UserID      *int64           `json:"userId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Products      string    `json:"products,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SupplierLog struct {
	ID             int64            `json:"id"`
	SupplierID     int64            `json:"supplierId"`
	Type           string           `json:"type"`
	ProductID      *string          `json:"productId,omitempty"`
	ProductName    string           `json:"productName,omitempty"`
	Quantity       *int             `json:"quantity,omitempty"`
	UnitCost       *decimal.Decimal `json:"unitCost,omitempty"`
	Status         string           `json:"status,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	InventoryLogID *int64           `json:"inventoryLogId,omitempty"`
	RecordedByID   *int64           `json:"recordedById,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type Order struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"transactionId"`
	CashierID     *int64          `json:"cashierId,omitempty"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []OrderItem     `json:"items"`
	Payments      []Payment       `json:"payments"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID *string         `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Voided    bool            `json:"voided"`
}

type Payment struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// VoidItem is the immutable line snapshot captured at void time.
type VoidItem struct {
	ProductID *string         `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// VoidLog records an approved void. Creation and approval are one event:
// ApprovedAt is set at insert time and rows are never updated afterwards.
type VoidLog struct {
	ID            int64           `json:"id"`
	VoidID        string          `json:"voidId"`
	TransactionID string          `json:"transactionId"`
	OrderID       *int64          `json:"orderId,omitempty"`
	VoidType      string          `json:"voidType"`
	Items         []VoidItem      `json:"items"`
	Amount        decimal.Decimal `json:"amount"`
	CashierID     *int64          `json:"cashierId,omitempty"`
	ManagerID     int64           `json:"managerId"`
	Reason        string          `json:"reason,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	RequestedAt   time.Time       `json:"requestedAt"`
	ApprovedAt    time.Time       `json:"approvedAt"`
}

type User struct {
	ID                int64      `json:"id"`
	SchoolID          string     `json:"schoolId"`
	Username          string     `json:"username"`
	FullName          string     `json:"fullName"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	Program           string     `json:"program,omitempty"`
	Section           string     `json:"section,omitempty"`
	Sex               string     `json:"sex,omitempty"`
	AvatarURL         string     `json:"avatarUrl,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
}

// StockAlertState is a per-user cursor suppressing repeat low-stock alerts.
// Cleared on login so each session re-evaluates the current signature.
type StockAlertState struct {
	UserID    int64     `json:"userId"`
	Signature string    `json:"signature"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NotificationRead struct {
	UserID          int64     `json:"userId"`
	NotificationKey string    `json:"notificationKey"`
	ReadAt          time.Time `json:"readAt"`
}

// ---- request / response payloads ----

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
	User        User   `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type CategoryCreateRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	IconURL string `json:"iconUrl,omitempty" validate:"omitempty,max=500"`
}

type CategoryUpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	IconURL *string `json:"iconUrl,omitempty" validate:"omitempty,max=500"`
	Active  *bool   `json:"active,omitempty"`
}

// Category delete modes (query param "mode").
const (
	CategoryDeleteItems    = "delete-items"
	CategoryDeleteReassign = "reassign"
)

type ProductCreateRequest struct {
	ID           string          `json:"id,omitempty" validate:"omitempty,max=160"`
	Name         string          `json:"name" validate:"required,max=160"`
	SKU          string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl,omitempty" validate:"omitempty,max=500"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	Status       string          `json:"status,omitempty" validate:"omitempty,max=40"`
	Allergens    []string        `json:"allergens,omitempty"`
	Sizes        []ProductSize   `json:"sizes,omitempty"`
	Addons       []ProductAddon  `json:"addons,omitempty"`
	Description  string          `json:"description,omitempty"`
	CategoryID   string          `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty" validate:"omitempty,max=120"`
}

type ProductUpdateRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	SKU          *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	ImageURL     *string          `json:"imageUrl,omitempty" validate:"omitempty,max=500"`
	Quantity     *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,max=40"`
	Allergens    *[]string        `json:"allergens,omitempty"`
	Sizes        *[]ProductSize   `json:"sizes,omitempty"`
	Addons       *[]ProductAddon  `json:"addons,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CategoryID   *string          `json:"categoryId,omitempty"`
	CategoryName *string          `json:"categoryName,omitempty" validate:"omitempty,max=120"`
	Active       *bool            `json:"active,omitempty"`
}

type SupplierCreateRequest struct {
	Name          string `json:"name" validate:"required,max=160"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ContactPerson string `json:"contactPerson,omitempty" validate:"omitempty,max=160"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Address       string `json:"address,omitempty" validate:"omitempty,max=500"`
	Products      string `json:"products,omitempty" validate:"omitempty,max=1000"`
	Notes         string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type SupplierUpdateRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ContactPerson *string `json:"contactPerson,omitempty" validate:"omitempty,max=160"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Products      *string `json:"products,omitempty" validate:"omitempty,max=1000"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type SupplierLogCreateRequest struct {
	Type      string           `json:"type" validate:"required,max=40"`
	ProductID string           `json:"productId,omitempty"`
	Quantity  *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitCost  *decimal.Decimal `json:"unitCost,omitempty"`
	Notes     string           `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

type OrderItemInput struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name,omitempty" validate:"omitempty,max=160"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
}

type PaymentInput struct {
	Method string          `json:"method" validate:"required,max=40"`
	Amount decimal.Decimal `json:"amount"`
}

type OrderCreateRequest struct {
	CashierID *int64           `json:"cashierId,omitempty"`
	Items     []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Payments  []PaymentInput   `json:"payments" validate:"required,min=1,dive"`
}

type VoidCreateRequest struct {
	TransactionID string          `json:"transactionId" validate:"required,max=80"`
	OrderID       *int64          `json:"orderId,omitempty"`
	VoidType      string          `json:"voidType" validate:"required,max=40"`
	Items         []VoidItem      `json:"items,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CashierID     *int64          `json:"cashierId,omitempty"`
	Reason        string          `json:"reason,omitempty" validate:"omitempty,max=500"`
	Notes         string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ScopeList accepts either a single scope string or an array of scopes.
type ScopeList []string

func (s *ScopeList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = ScopeList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = ScopeList(many)
	return nil
}

type ResetRequest struct {
	Scope ScopeList `json:"scope,omitempty"`
	Qty   *int      `json:"qty,omitempty" validate:"omitempty,gte=0,lte=9999"`
}

type ResetResponse struct {
	OK     bool     `json:"ok"`
	Scopes []string `json:"scopes"`
}

type ImportUserInput struct {
	SchoolID string `json:"schoolId" validate:"required,max=40"`
	Username string `json:"username" validate:"required,min=3,max=80"`
	FullName string `json:"fullName" validate:"required,max=160"`
	Role     string `json:"role" validate:"required,oneof=CASHIER ADMIN SUPER_ADMIN"`
	Password string `json:"password" validate:"required,min=6"`
	Program  string `json:"program,omitempty" validate:"omitempty,max=120"`
	Section  string `json:"section,omitempty" validate:"omitempty,max=120"`
	Sex      string `json:"sex,omitempty" validate:"omitempty,max=20"`
}

type ImportUsersRequest struct {
	Users []ImportUserInput `json:"users" validate:"required,min=1,dive"`
}

type StockAlertUpdateRequest struct {
	Signature string `json:"signature" validate:"required,max=500"`
}

// ---- log query filters and pages ----

type InventoryLogFilter struct {
	Take      int
	Cursor    int64
	From      *time.Time
	To        *time.Time
	Search    string
	UserID    *int64
	ProductID string
}

type SupplierLogFilter struct {
	Take       int
	Cursor     int64
	From       *time.Time
	To         *time.Time
	Search     string
	SupplierID *int64
	Type       string
}

type VoidLogFilter struct {
	Take      int
	Cursor    int64
	From      *time.Time
	To        *time.Time
	Search    string
	VoidType  string
	CashierID *int64
	ManagerID *int64
}

type InventoryLogPage struct {
	Data       []InventoryLog `json:"data"`
	NextCursor *int64         `json:"nextCursor"`
}

type SupplierLogPage struct {
	Data       []SupplierLog `json:"data"`
	NextCursor *int64        `json:"nextCursor"`
}

type VoidLogPage struct {
	Data       []VoidLog `json:"data"`
	NextCursor *int64    `json:"nextCursor"`
}

// ---- stock alerts ----

type StockAlert struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// StockAlertsResponse carries the current low-stock set plus a signature over
// it. Seen reports whether the caller already acknowledged this signature.
type StockAlertsResponse struct {
	Alerts    []StockAlert `json:"alerts"`
	Signature string       `json:"signature"`
	Seen      bool         `json:"seen"`
}

// ---- analytics ----

type TopItem struct {
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type CashierSummary struct {
	CashierID int64           `json:"cashierId"`
	Username  string          `json:"username,omitempty"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type AdminAnalytics struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Revenue  decimal.Decimal  `json:"revenue"`
	Orders   int64            `json:"orders"`
	TopItems []TopItem        `json:"topItems"`
	Cashiers []CashierSummary `json:"cashiers"`
}

type CashierAnalytics struct {
	CashierID int64           `json:"cashierId"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
	TopItems  []TopItem       `json:"topItems"`
}
