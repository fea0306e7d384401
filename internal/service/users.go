package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

// ErrInvalidCredentials is deliberately indistinct about whether the username
// or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticate verifies the password and stamps the login. The stock alert
// and notification cursors are cleared in the same store call so the fresh
// session re-evaluates both.
func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("login stamp failed")
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

func (s *Service) GetProfile(ctx context.Context) (*domain.User, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, actor.UserID)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// ImportUsers upserts the batch keyed by username. Existing accounts take the
// imported profile and password; ids are preserved.
func (s *Service) ImportUsers(ctx context.Context, req domain.ImportUsersRequest) ([]domain.User, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Users))
	users := make([]domain.User, 0, len(req.Users))
	for _, input := range req.Users {
		username := strings.ToLower(strings.TrimSpace(input.Username))
		if seen[username] {
			return nil, fmt.Errorf("%w: duplicate username %q in batch", store.ErrValidation, username)
		}
		seen[username] = true

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		users = append(users, domain.User{
			SchoolID:     strings.TrimSpace(input.SchoolID),
			Username:     username,
			FullName:     strings.TrimSpace(input.FullName),
			Role:         input.Role,
			PasswordHash: string(hash),
			Program:      strings.TrimSpace(input.Program),
			Section:      strings.TrimSpace(input.Section),
			Sex:          strings.TrimSpace(input.Sex),
		})
	}
	return s.repo.UpsertUsersByUsername(ctx, users)
}

func (s *Service) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return err
	}
	if err := s.validateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("%w: current password does not match", store.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdateUserPassword(ctx, actor.UserID, string(hash), s.now())
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", store.ErrValidation)
	}

	target, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleSuperAdmin {
		return fmt.Errorf("%w: super admin accounts cannot be deleted", ErrForbidden)
	}
	return s.repo.DeleteUser(ctx, id)
}

// EnsureBootstrapAdmin guarantees a super admin exists so a fresh deployment
// can be logged into. No-op when the username is already taken or the
// password is unset.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username string, password string) error {
	if username == "" || password == "" {
		return nil
	}

	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.UpsertUsersByUsername(ctx, []domain.User{{
		SchoolID:     "SYSTEM",
		Username:     strings.ToLower(username),
		FullName:     "Bootstrap Administrator",
		Role:         domain.RoleSuperAdmin,
		PasswordHash: string(hash),
	}})
	if err == nil {
		s.logger.Info().Str("username", username).Msg("bootstrap super admin created")
	}
	return err
}
