package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

// ---- auth ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.service.Authenticate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, expiresAt, err := s.auth.IssueToken(*user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, domain.LoginResponse{
		AccessToken: token,
		Role:        user.Role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        *user,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.service.GetProfile(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.ChangePassword(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- categories ----

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	categories, err := s.service.ListCategories(r.Context(), includeInactive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	category, err := s.service.CreateCategory(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	category, err := s.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	fallback, err := s.service.DeleteCategory(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if fallback != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "reassignedTo": fallback})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- products ----

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	products, err := s.service.ListProducts(r.Context(), includeInactive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.service.CreateProduct(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	product, err := s.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- logs ----

func (s *Server) handleInventoryLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.InventoryLogFilter{
		Take:      queryInt(q, "take"),
		Cursor:    queryInt64(q, "cursor"),
		From:      queryTime(q, "from"),
		To:        queryTime(q, "to"),
		Search:    q.Get("search"),
		ProductID: q.Get("productId"),
	}
	if id := queryInt64(q, "userId"); id > 0 {
		filter.UserID = &id
	}

	page, err := s.service.InventoryLogs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSupplierLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SupplierLogFilter{
		Take:   queryInt(q, "take"),
		Cursor: queryInt64(q, "cursor"),
		From:   queryTime(q, "from"),
		To:     queryTime(q, "to"),
		Search: q.Get("search"),
		Type:   q.Get("type"),
	}
	if id := queryInt64(q, "supplierId"); id > 0 {
		filter.SupplierID = &id
	}
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := pathInt64(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.SupplierID = &id
	}

	page, err := s.service.SupplierLogs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleVoidLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VoidLogFilter{
		Take:     queryInt(q, "take"),
		Cursor:   queryInt64(q, "cursor"),
		From:     queryTime(q, "from"),
		To:       queryTime(q, "to"),
		Search:   q.Get("search"),
		VoidType: q.Get("type"),
	}
	if filter.VoidType == "" {
		filter.VoidType = q.Get("voidType")
	}
	if id := queryInt64(q, "cashierId"); id > 0 {
		filter.CashierID = &id
	}
	if id := queryInt64(q, "managerId"); id > 0 {
		filter.ManagerID = &id
	}

	page, err := s.service.VoidLogs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

// ---- stock alerts ----

func (s *Server) handleStockAlerts(w http.ResponseWriter, r *http.Request) {
	response, err := s.service.StockAlerts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAcknowledgeStockAlerts(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAlertUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := s.service.AcknowledgeStockAlerts(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	read, err := s.service.MarkNotificationRead(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, read)
}

// ---- suppliers ----

func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.service.ListSuppliers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, suppliers)
}

func (s *Server) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	supplier, err := s.service.GetSupplier(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, supplier)
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	supplier, err := s.service.CreateSupplier(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, supplier)
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req domain.SupplierUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	supplier, err := s.service.UpdateSupplier(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, supplier)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.DeleteSupplier(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleAddSupplierLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req domain.SupplierLogCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.service.AddSupplierLog(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRecordDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req domain.SupplierLogCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Type = domain.SupplierLogDelivery

	result, err := s.service.RecordDelivery(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"supplierLog":  result.SupplierLog,
		"inventoryLog": result.InventoryLog,
		"newQuantity":  result.NewQuantity,
	})
}

// ---- orders and voids ----

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.service.CreateOrder(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.service.GetOrder(r.Context(), chi.URLParam(r, "transactionId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleApproveVoid(w http.ResponseWriter, r *http.Request) {
	var req domain.VoidCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	void, err := s.service.ApproveVoid(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, void)
}

// ---- users ----

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	var req domain.ImportUsersRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := s.service.ImportUsers(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"users": users})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.DeleteUser(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- reset and analytics ----

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	response, err := s.service.Reset(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.service.AdminAnalytics(r.Context(), derefTime(queryTime(q, "from")), derefTime(queryTime(q, "to")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCashierAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cashierID := queryInt64(q, "cashierId")
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := pathInt64(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		cashierID = id
	}
	result, err := s.service.CashierAnalytics(r.Context(), cashierID,
		derefTime(queryTime(q, "from")), derefTime(queryTime(q, "to")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// ---- query helpers ----

func queryInt(q url.Values, key string) int {
	n, _ := strconv.Atoi(q.Get(key))
	return n
}

func queryInt64(q url.Values, key string) int64 {
	n, _ := strconv.ParseInt(q.Get(key), 10, 64)
	return n
}

// queryTime accepts RFC 3339 stamps or bare dates.
func queryTime(q url.Values, key string) *time.Time {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		parsed = parsed.UTC()
		return &parsed
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func pathInt64(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", store.ErrValidation, chi.URLParam(r, key))
	}
	return id, nil
}
