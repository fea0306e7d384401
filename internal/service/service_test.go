package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/menu"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/store/memory"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	repo.Seed(menu.Default())
	return New(repo, zerolog.Nop(), opts...), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleAdmin})
}

func superCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: 1, Username: "root", Role: domain.RoleSuperAdmin})
}

func cashierCtx(id int64) context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: id, Username: "cashier", Role: domain.RoleCashier})
}

func importUser(t *testing.T, svc *Service, username string, role string, password string) domain.User {
	t.Helper()
	users, err := svc.ImportUsers(adminCtx(), domain.ImportUsersRequest{Users: []domain.ImportUserInput{{
		SchoolID: "S-1",
		Username: username,
		FullName: "Test " + username,
		Role:     role,
		Password: password,
	}}})
	if err != nil {
		t.Fatalf("import %s: %v", username, err)
	}
	return users[0]
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	user := importUser(t, svc, "kim", domain.RoleCashier, "secret123")

	got, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "KIM", Password: "secret123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("got user %d, want %d", got.ID, user.ID)
	}
	if got.LastLogin == nil {
		t.Fatalf("expected login stamp")
	}

	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "kim", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "ghost", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginClearsStockAlertState(t *testing.T) {
	svc, repo := newTestService(t)
	user := importUser(t, svc, "kim", domain.RoleCashier, "secret123")

	ctx := cashierCtx(user.ID)
	if _, err := svc.AcknowledgeStockAlerts(ctx, domain.StockAlertUpdateRequest{Signature: "sig-1"}); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := repo.GetStockAlertState(context.Background(), user.ID); err != nil {
		t.Fatalf("state should exist: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "kim", Password: "secret123"}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := repo.GetStockAlertState(context.Background(), user.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("state should be cleared on login, got %v", err)
	}
}

func TestLoginClearsNotificationReads(t *testing.T) {
	svc, _ := newTestService(t)
	user := importUser(t, svc, "kim", domain.RoleCashier, "secret123")
	ctx := cashierCtx(user.ID)

	first, err := svc.MarkNotificationRead(ctx, "low-stock-2026-08")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "kim", Password: "secret123"}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	time.Sleep(time.Millisecond)
	again, err := svc.MarkNotificationRead(ctx, "low-stock-2026-08")
	if err != nil {
		t.Fatalf("mark after login: %v", err)
	}
	if !again.ReadAt.After(first.ReadAt) {
		t.Fatalf("notification read survived login: %v vs %v", again.ReadAt, first.ReadAt)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	user := importUser(t, svc, "kim", domain.RoleCashier, "secret123")
	ctx := cashierCtx(user.ID)

	err := svc.ChangePassword(ctx, domain.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass1"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("wrong current password: got %v, want validation error", err)
	}

	if err := svc.ChangePassword(ctx, domain.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newpass1"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "kim", Password: "newpass1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestImportUsersUpsertsByUsername(t *testing.T) {
	svc, _ := newTestService(t)
	first := importUser(t, svc, "kim", domain.RoleCashier, "secret123")
	second := importUser(t, svc, "kim", domain.RoleAdmin, "other-pass")

	if first.ID != second.ID {
		t.Fatalf("reimport changed id: %d vs %d", first.ID, second.ID)
	}
	if second.Role != domain.RoleAdmin {
		t.Fatalf("role not updated: %s", second.Role)
	}

	_, err := svc.ImportUsers(adminCtx(), domain.ImportUsersRequest{Users: []domain.ImportUserInput{
		{SchoolID: "S-1", Username: "dup", FullName: "A", Role: domain.RoleCashier, Password: "secret123"},
		{SchoolID: "S-2", Username: "DUP", FullName: "B", Role: domain.RoleCashier, Password: "secret123"},
	}})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("duplicate batch: got %v, want validation error", err)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	svc, _ := newTestService(t)
	admin := importUser(t, svc, "boss", domain.RoleAdmin, "secret123")
	super := importUser(t, svc, "root", domain.RoleSuperAdmin, "secret123")

	adminAct := WithActor(context.Background(), domain.Actor{UserID: admin.ID, Username: admin.Username, Role: admin.Role})

	if err := svc.DeleteUser(adminAct, admin.ID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("self delete: got %v, want validation error", err)
	}
	if err := svc.DeleteUser(adminAct, super.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin deleting super admin: got %v, want ErrForbidden", err)
	}

	superAct := WithActor(context.Background(), domain.Actor{UserID: super.ID, Username: super.Username, Role: super.Role})
	if err := svc.DeleteUser(superAct, super.ID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("super self delete: got %v, want validation error", err)
	}
	other := importUser(t, svc, "root2", domain.RoleSuperAdmin, "secret123")
	if err := svc.DeleteUser(superAct, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("deleting a super admin by id: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteUser(superAct, admin.ID); err != nil {
		t.Fatalf("super deleting admin: %v", err)
	}
}

func TestRoleChecks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := cashierCtx(7)

	if _, err := svc.CreateCategory(ctx, domain.CategoryCreateRequest{Name: "Specials"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier create category: got %v, want ErrForbidden", err)
	}
	if _, err := svc.ListUsers(ctx); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier list users: got %v, want ErrForbidden", err)
	}
	if _, err := svc.Reset(adminCtx(), domain.ResetRequest{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin reset: got %v, want ErrForbidden (super admin only)", err)
	}
	if _, err := svc.ListCategories(context.Background(), false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous list: got %v, want ErrForbidden", err)
	}
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	svc, repo := newTestService(t)

	if err := svc.EnsureBootstrapAdmin(context.Background(), "superadmin", "bootpass1"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	user, err := repo.GetUserByUsername(context.Background(), "superadmin")
	if err != nil {
		t.Fatalf("bootstrap user missing: %v", err)
	}
	if user.Role != domain.RoleSuperAdmin {
		t.Fatalf("bootstrap role: %s", user.Role)
	}

	// Second run is a no-op and must not rotate the password.
	if err := svc.EnsureBootstrapAdmin(context.Background(), "superadmin", "different"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), domain.LoginRequest{Username: "superadmin", Password: "bootpass1"}); err != nil {
		t.Fatalf("original bootstrap password rejected: %v", err)
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return fixed }))
	if got := svc.now(); !got.Equal(fixed) {
		t.Fatalf("clock not applied: %v", got)
	}
}
