// Package memory implements store.Repository entirely in memory. It backs the
// test suite and local development without a database, and mirrors the
// postgres store's semantics including atomicity of multi-entity mutations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/menu"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/xid"
)

type Store struct {
	mu sync.Mutex

	categories map[string]domain.Category
	products   map[string]domain.Product
	suppliers  map[int64]domain.Supplier
	users      map[int64]domain.User
	orders     []domain.Order

	inventoryLogs []domain.InventoryLog
	supplierLogs  []domain.SupplierLog
	voidLogs      []domain.VoidLog

	alertStates map[int64]domain.StockAlertState
	notifReads  map[string]domain.NotificationRead

	nextSupplierID     int64
	nextUserID         int64
	nextOrderID        int64
	nextOrderItemID    int64
	nextPaymentID      int64
	nextInventoryLogID int64
	nextSupplierLogID  int64
	nextVoidLogID      int64

	// FailInventoryLogs simulates audit-log write failures so callers can
	// exercise the best-effort contract.
	FailInventoryLogs bool
}

func New() *Store {
	return &Store{
		categories:  make(map[string]domain.Category),
		products:    make(map[string]domain.Product),
		suppliers:   make(map[int64]domain.Supplier),
		users:       make(map[int64]domain.User),
		alertStates: make(map[int64]domain.StockAlertState),
		notifReads:  make(map[string]domain.NotificationRead),
	}
}

// Seed loads a catalog the same way a bulk reset does.
func (s *Store) Seed(seed []menu.CategorySeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedLocked(seed)
}

func (s *Store) seedLocked(seed []menu.CategorySeed) {
	for _, category := range seed {
		cat := s.findOrCreateCategoryLocked(category.Name)
		if category.IconURL != "" {
			cat.IconURL = category.IconURL
			cat.Active = true
			s.categories[cat.ID] = *cat
		}
		for _, product := range category.Products {
			id := xid.Slug(product.Name)
			if _, exists := s.products[id]; exists {
				continue
			}
			s.products[id] = domain.Product{
				ID:          id,
				Name:        product.Name,
				SKU:         product.SKU,
				Price:       product.Price,
				Quantity:    product.Quantity,
				Allergens:   append([]string(nil), product.Allergens...),
				Description: product.Description,
				Active:      true,
				CategoryID:  cat.ID,
			}
		}
	}
}

// ---- categories ----

func (s *Store) ListCategories(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An empty fallback category must never show up as selectable.
	s.syncFallbackLocked()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		if !includeInactive && !cat.Active {
			continue
		}
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cat, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.ID]; exists {
		return nil, store.ErrConflict
	}
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, store.ErrConflict
		}
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[category.ID]; !ok {
		return nil, store.ErrNotFound
	}
	for id, existing := range s.categories {
		if id != category.ID && strings.EqualFold(existing.Name, category.Name) {
			return nil, store.ErrConflict
		}
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) FindOrCreateCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findOrCreateCategoryLocked(name), nil
}

func (s *Store) findOrCreateCategoryLocked(name string) *domain.Category {
	for _, cat := range s.categories {
		if strings.EqualFold(cat.Name, name) {
			return &cat
		}
	}
	created := domain.Category{ID: xid.Slug(name), Name: name, Active: true}
	s.categories[created.ID] = created
	return &created
}

func (s *Store) DeleteCategoryItems(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok {
		return store.ErrNotFound
	}

	for pid, product := range s.products {
		if product.CategoryID != id || !product.Active {
			continue
		}
		product.Active = false
		s.products[pid] = product

		productID := product.ID
		stock := product.Quantity
		s.appendInventoryLogLocked(domain.InventoryLog{
			ProductID:   &productID,
			ProductName: product.Name,
			Action:      domain.LogActionDelete,
			Detail:      fmt.Sprintf("removed with category %q", cat.Name),
			Stock:       &stock,
			Category:    cat.Name,
		})
	}

	cat.Active = false
	s.categories[id] = cat
	s.syncFallbackLocked()
	return nil
}

func (s *Store) DeleteCategoryReassign(_ context.Context, id string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	fallback := s.findOrCreateCategoryLocked(domain.FallbackCategoryName)
	if fallback.ID == cat.ID {
		return nil, fmt.Errorf("%w: cannot reassign the fallback category into itself", store.ErrValidation)
	}

	for pid, product := range s.products {
		if product.CategoryID != id {
			continue
		}
		product.CategoryID = fallback.ID
		s.products[pid] = product

		productID := product.ID
		s.appendInventoryLogLocked(domain.InventoryLog{
			ProductID:   &productID,
			ProductName: product.Name,
			Action:      domain.LogActionUpdate,
			Detail:      fmt.Sprintf("moved from %q to %q", cat.Name, fallback.Name),
			Category:    fallback.Name,
		})
	}

	cat.Active = false
	s.categories[id] = cat
	s.syncFallbackLocked()

	updated := s.categories[fallback.ID]
	return &updated, nil
}

func (s *Store) syncFallbackLocked() {
	for id, cat := range s.categories {
		if !strings.EqualFold(cat.Name, domain.FallbackCategoryName) {
			continue
		}
		active := false
		for _, product := range s.products {
			if product.CategoryID == id && product.Active {
				active = true
				break
			}
		}
		cat.Active = active
		s.categories[id] = cat
	}
}

// ---- products ----

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if !includeInactive && !product.Active {
			continue
		}
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, nil, store.ErrConflict
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return nil, nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	saved := s.appendInventoryLogLocked(log)
	s.syncFallbackLocked()
	return &product, saved, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product, log domain.InventoryLog) (*domain.Product, *domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return nil, nil, store.ErrNotFound
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return nil, nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	saved := s.appendInventoryLogLocked(log)
	s.syncFallbackLocked()
	return &product, saved, nil
}

func (s *Store) ArchiveProduct(_ context.Context, id string, log domain.InventoryLog) (*domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok || !product.Active {
		return nil, store.ErrNotFound
	}
	product.Active = false
	s.products[id] = product

	saved := s.appendInventoryLogLocked(log)
	s.syncFallbackLocked()
	return saved, nil
}

// ---- logs ----

// appendInventoryLogLocked is the best-effort half of the audit contract: when
// FailInventoryLogs is set it drops the entry and returns nil, like a failed
// savepoint insert.
func (s *Store) appendInventoryLogLocked(entry domain.InventoryLog) *domain.InventoryLog {
	if s.FailInventoryLogs {
		return nil
	}
	saved, _ := s.insertInventoryLogLocked(entry)
	return saved
}

func (s *Store) insertInventoryLogLocked(entry domain.InventoryLog) (*domain.InventoryLog, error) {
	if s.FailInventoryLogs {
		return nil, fmt.Errorf("inventory log write refused")
	}
	s.nextInventoryLogID++
	entry.ID = s.nextInventoryLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.inventoryLogs = append(s.inventoryLogs, entry)
	return &entry, nil
}

func (s *Store) AppendInventoryLog(_ context.Context, entry domain.InventoryLog) (*domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertInventoryLogLocked(entry)
}

func (s *Store) QueryInventoryLogs(_ context.Context, filter domain.InventoryLogFilter) (domain.InventoryLogPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	take := clampTake(filter.Take)
	matches := make([]domain.InventoryLog, 0)
	for i := len(s.inventoryLogs) - 1; i >= 0; i-- {
		entry := s.inventoryLogs[i]
		if filter.Cursor > 0 && entry.ID >= filter.Cursor {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.Search != "" && !containsFold(entry.ProductName, filter.Search) && !containsFold(entry.Detail, filter.Search) {
			continue
		}
		if filter.UserID != nil && (entry.UserID == nil || *entry.UserID != *filter.UserID) {
			continue
		}
		if filter.ProductID != "" && (entry.ProductID == nil || *entry.ProductID != filter.ProductID) {
			continue
		}
		matches = append(matches, entry)
		if len(matches) == take {
			break
		}
	}

	page := domain.InventoryLogPage{Data: matches}
	if len(matches) == take {
		last := matches[len(matches)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *Store) QuerySupplierLogs(_ context.Context, filter domain.SupplierLogFilter) (domain.SupplierLogPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	take := clampTake(filter.Take)
	matches := make([]domain.SupplierLog, 0)
	for i := len(s.supplierLogs) - 1; i >= 0; i-- {
		entry := s.supplierLogs[i]
		if filter.Cursor > 0 && entry.ID >= filter.Cursor {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.Search != "" && !containsFold(entry.ProductName, filter.Search) && !containsFold(entry.Notes, filter.Search) {
			continue
		}
		if filter.SupplierID != nil && entry.SupplierID != *filter.SupplierID {
			continue
		}
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		matches = append(matches, entry)
		if len(matches) == take {
			break
		}
	}

	page := domain.SupplierLogPage{Data: matches}
	if len(matches) == take {
		last := matches[len(matches)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *Store) QueryVoidLogs(_ context.Context, filter domain.VoidLogFilter) (domain.VoidLogPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	take := clampTake(filter.Take)
	matches := make([]domain.VoidLog, 0)
	for i := len(s.voidLogs) - 1; i >= 0; i-- {
		entry := s.voidLogs[i]
		if filter.Cursor > 0 && entry.ID >= filter.Cursor {
			continue
		}
		if filter.From != nil && entry.ApprovedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.ApprovedAt.After(*filter.To) {
			continue
		}
		if filter.Search != "" && !containsFold(entry.TransactionID, filter.Search) &&
			!containsFold(entry.VoidID, filter.Search) && !containsFold(entry.Reason, filter.Search) {
			continue
		}
		if filter.VoidType != "" && entry.VoidType != filter.VoidType {
			continue
		}
		if filter.CashierID != nil && (entry.CashierID == nil || *entry.CashierID != *filter.CashierID) {
			continue
		}
		if filter.ManagerID != nil && entry.ManagerID != *filter.ManagerID {
			continue
		}
		matches = append(matches, entry)
		if len(matches) == take {
			break
		}
	}

	page := domain.VoidLogPage{Data: matches}
	if len(matches) == take {
		last := matches[len(matches)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// ---- suppliers ----

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, supplier)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) insertSupplierLogLocked(entry domain.SupplierLog) *domain.SupplierLog {
	s.nextSupplierLogID++
	entry.ID = s.nextSupplierLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.supplierLogs = append(s.supplierLogs, entry)
	return &entry
}

func (s *Store) AppendSupplierLog(_ context.Context, entry domain.SupplierLog) (*domain.SupplierLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[entry.SupplierID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.insertSupplierLogLocked(entry), nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier, log domain.SupplierLog) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSupplierID++
	supplier.ID = s.nextSupplierID
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	s.suppliers[supplier.ID] = supplier

	log.SupplierID = supplier.ID
	s.insertSupplierLogLocked(log)
	return &supplier, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier, logs []domain.SupplierLog, invLog *domain.InventoryLog) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[supplier.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	supplier.CreatedAt = existing.CreatedAt
	s.suppliers[supplier.ID] = supplier

	for _, entry := range logs {
		entry.SupplierID = supplier.ID
		s.insertSupplierLogLocked(entry)
	}
	if invLog != nil {
		s.appendInventoryLogLocked(*invLog)
	}
	return &supplier, nil
}

func (s *Store) DeactivateSupplier(_ context.Context, id int64, log domain.SupplierLog, invLog domain.InventoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		return store.ErrNotFound
	}
	supplier.Status = domain.SupplierStatusInactive
	s.suppliers[id] = supplier

	log.SupplierID = id
	s.insertSupplierLogLocked(log)
	s.appendInventoryLogLocked(invLog)
	return nil
}

func (s *Store) CreateSupplierDelivery(_ context.Context, delivery store.SupplierDelivery) (*store.SupplierDeliveryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, ok := s.suppliers[delivery.SupplierID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if supplier.Status != domain.SupplierStatusActive {
		return nil, fmt.Errorf("%w: supplier %d is inactive", store.ErrConflict, supplier.ID)
	}

	product, ok := s.products[delivery.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product %q is archived", store.ErrConflict, product.ID)
	}

	category := ""
	if cat, ok := s.categories[product.CategoryID]; ok {
		category = cat.Name
	}

	newQuantity := product.Quantity + delivery.Quantity

	productID := product.ID
	stock := newQuantity
	detail := fmt.Sprintf("delivery of %d from %s", delivery.Quantity, supplier.Name)
	if delivery.Notes != "" {
		detail += ": " + delivery.Notes
	}
	price := product.Price
	invLog, err := s.insertInventoryLogLocked(domain.InventoryLog{
		ProductID:   &productID,
		ProductName: product.Name,
		Action:      domain.LogActionSupplierDelivery,
		Detail:      detail,
		Stock:       &stock,
		OldPrice:    &price,
		NewPrice:    &price,
		Category:    category,
		UserID:      delivery.RecordedByID,
	})
	if err != nil {
		// Delivery is all-or-nothing; without its inventory log the stock
		// increment must not land either.
		return nil, err
	}

	product.Quantity = newQuantity
	s.products[product.ID] = product

	quantity := delivery.Quantity
	metadata := map[string]any{
		"previousStock":    newQuantity - delivery.Quantity,
		"newStock":         newQuantity,
		"receivedQuantity": delivery.Quantity,
	}
	if delivery.UnitCost != nil {
		metadata["unitCost"] = delivery.UnitCost.String()
	}
	supplierLog := s.insertSupplierLogLocked(domain.SupplierLog{
		SupplierID:     supplier.ID,
		Type:           domain.SupplierLogDelivery,
		ProductID:      &productID,
		ProductName:    product.Name,
		Quantity:       &quantity,
		UnitCost:       delivery.UnitCost,
		Notes:          delivery.Notes,
		Metadata:       metadata,
		InventoryLogID: &invLog.ID,
		RecordedByID:   delivery.RecordedByID,
	})

	return &store.SupplierDeliveryResult{
		SupplierLog:  *supplierLog,
		InventoryLog: invLog,
		NewQuantity:  newQuantity,
	}, nil
}

// ---- orders and voids ----

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.TransactionID == order.TransactionID {
			return nil, store.ErrConflict
		}
	}

	s.nextOrderID++
	order.ID = s.nextOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	for i := range order.Items {
		item := &order.Items[i]
		s.nextOrderItemID++
		item.ID = s.nextOrderItemID
		item.OrderID = order.ID

		if item.ProductID != nil {
			if product, ok := s.products[*item.ProductID]; ok && product.Active {
				product.Quantity -= item.Quantity
				if product.Quantity < 0 {
					product.Quantity = 0
				}
				s.products[product.ID] = product
			}
		}
	}

	for i := range order.Payments {
		payment := &order.Payments[i]
		s.nextPaymentID++
		payment.ID = s.nextPaymentID
		payment.OrderID = order.ID
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = order.CreatedAt
		}
	}

	s.orders = append(s.orders, order)
	return &order, nil
}

func (s *Store) GetOrderByTransactionID(_ context.Context, transactionID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.TransactionID == transactionID {
			return &order, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateVoidLog(_ context.Context, void domain.VoidLog) (*domain.VoidLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextVoidLogID++
	void.ID = s.nextVoidLogID
	s.voidLogs = append(s.voidLogs, void)
	return &void, nil
}

// ---- users ----

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpsertUsersByUsername(_ context.Context, users []domain.User) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]domain.User, 0, len(users))
	for _, user := range users {
		var existingID int64
		for id, existing := range s.users {
			if strings.EqualFold(existing.Username, user.Username) {
				existingID = id
				break
			}
		}
		if existingID != 0 {
			existing := s.users[existingID]
			user.ID = existingID
			user.LastLogin = existing.LastLogin
			user.AvatarURL = existing.AvatarURL
		} else {
			s.nextUserID++
			user.ID = s.nextUserID
		}
		s.users[user.ID] = user
		saved = append(saved, user)
	}
	return saved, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.PasswordChangedAt = &changedAt
	s.users[id] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	delete(s.alertStates, id)
	for key, read := range s.notifReads {
		if read.UserID == id {
			delete(s.notifReads, key)
		}
	}
	return nil
}

func (s *Store) RecordLogin(_ context.Context, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLogin = &at
	s.users[userID] = user
	delete(s.alertStates, userID)
	for key, read := range s.notifReads {
		if read.UserID == userID {
			delete(s.notifReads, key)
		}
	}
	return nil
}

// ---- alert state ----

func (s *Store) GetStockAlertState(_ context.Context, userID int64) (*domain.StockAlertState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.alertStates[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &state, nil
}

func (s *Store) SetStockAlertState(_ context.Context, userID int64, signature string) (*domain.StockAlertState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.StockAlertState{UserID: userID, Signature: signature, UpdatedAt: time.Now().UTC()}
	s.alertStates[userID] = state
	return &state, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID int64, key string) (*domain.NotificationRead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapKey := fmt.Sprintf("%d/%s", userID, key)
	if existing, ok := s.notifReads[mapKey]; ok {
		return &existing, nil
	}
	read := domain.NotificationRead{UserID: userID, NotificationKey: key, ReadAt: time.Now().UTC()}
	s.notifReads[mapKey] = read
	return &read, nil
}

// ---- reset and analytics ----

func (s *Store) BulkReset(_ context.Context, plan store.ResetPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Transactions {
		s.orders = nil
	}
	if plan.Voids {
		s.voidLogs = nil
	}
	if plan.Users {
		// Super admin accounts are never swept, regardless of who is acting.
		kept := make(map[int64]bool)
		for id, user := range s.users {
			if id == plan.KeepUserID || user.Role == domain.RoleSuperAdmin {
				kept[id] = true
				continue
			}
			delete(s.users, id)
			delete(s.alertStates, id)
		}
		for key, read := range s.notifReads {
			if !kept[read.UserID] {
				delete(s.notifReads, key)
			}
		}
	}
	if plan.Products {
		s.inventoryLogs = nil
		s.products = make(map[string]domain.Product)
		for i := range s.supplierLogs {
			s.supplierLogs[i].InventoryLogID = nil
		}
	}
	if plan.Categories {
		s.categories = make(map[string]domain.Category)
	}
	if plan.Products {
		s.seedLocked(plan.Seed)
	}

	if plan.Stock {
		touched := 0
		for id, product := range s.products {
			product.Quantity = plan.StockQty
			s.products[id] = product
			touched++
		}

		stock := plan.StockQty
		if _, err := s.insertInventoryLogLocked(domain.InventoryLog{
			ProductName: "ALL PRODUCTS",
			Action:      domain.LogActionResetQuantity,
			Detail:      fmt.Sprintf("stock reset to %d across %d products", plan.StockQty, touched),
			Stock:       &stock,
			UserID:      plan.ActorID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AdminAnalytics(_ context.Context, from time.Time, to time.Time) (domain.AdminAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.AdminAnalytics{From: from, To: to, Revenue: decimal.Zero}
	byCashier := make(map[int64]*domain.CashierSummary)

	for _, order := range s.orders {
		if !inRange(order.CreatedAt, from, to) {
			continue
		}
		result.Orders++
		result.Revenue = result.Revenue.Add(order.Total)

		if order.CashierID != nil {
			summary, ok := byCashier[*order.CashierID]
			if !ok {
				summary = &domain.CashierSummary{CashierID: *order.CashierID, Revenue: decimal.Zero}
				if user, exists := s.users[*order.CashierID]; exists {
					summary.Username = user.Username
				}
				byCashier[*order.CashierID] = summary
			}
			summary.Orders++
			summary.Revenue = summary.Revenue.Add(order.Total)
		}
	}

	result.TopItems = s.topItemsLocked(from, to, nil)
	result.Cashiers = make([]domain.CashierSummary, 0, len(byCashier))
	for _, summary := range byCashier {
		result.Cashiers = append(result.Cashiers, *summary)
	}
	sort.Slice(result.Cashiers, func(i, j int) bool {
		return result.Cashiers[i].Revenue.GreaterThan(result.Cashiers[j].Revenue)
	})
	return result, nil
}

func (s *Store) CashierAnalytics(_ context.Context, cashierID int64, from time.Time, to time.Time) (domain.CashierAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.CashierAnalytics{CashierID: cashierID, From: from, To: to, Revenue: decimal.Zero}
	for _, order := range s.orders {
		if !inRange(order.CreatedAt, from, to) || order.CashierID == nil || *order.CashierID != cashierID {
			continue
		}
		result.Orders++
		result.Revenue = result.Revenue.Add(order.Total)
	}
	result.TopItems = s.topItemsLocked(from, to, &cashierID)
	return result, nil
}

func (s *Store) topItemsLocked(from time.Time, to time.Time, cashierID *int64) []domain.TopItem {
	type agg struct {
		quantity int64
		revenue  decimal.Decimal
	}
	byName := make(map[string]*agg)

	for _, order := range s.orders {
		if !inRange(order.CreatedAt, from, to) {
			continue
		}
		if cashierID != nil && (order.CashierID == nil || *order.CashierID != *cashierID) {
			continue
		}
		for _, item := range order.Items {
			if item.Voided {
				continue
			}
			entry, ok := byName[item.Name]
			if !ok {
				entry = &agg{revenue: decimal.Zero}
				byName[item.Name] = entry
			}
			entry.quantity += int64(item.Quantity)
			entry.revenue = entry.revenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	items := make([]domain.TopItem, 0, len(byName))
	for name, entry := range byName {
		items = append(items, domain.TopItem{ProductName: name, Quantity: entry.quantity, Revenue: entry.revenue})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].ProductName < items[j].ProductName
	})
	if len(items) > 10 {
		items = items[:10]
	}
	return items
}

func inRange(at time.Time, from time.Time, to time.Time) bool {
	return !at.Before(from) && at.Before(to)
}

func clampTake(take int) int {
	if take <= 0 {
		return 50
	}
	if take > 200 {
		return 200
	}
	return take
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
