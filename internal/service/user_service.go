package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// UserService manages the account roster. Every operation is admin-only;
// handlers additionally guard the routes. Credential resets and account
// deletions revoke the target's sessions through the registry.
type UserService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, sessions repository.SessionRepository, bcryptCost int) *UserService {
	return &UserService{users: users, sessions: sessions, bcryptCost: bcryptCost}
}

// UserCreateInput describes roster creation payload.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserPatch describes a partial roster update: role change and/or
// credential reset.
type UserPatch struct {
	Role     *domain.Role
	Password *string
}

// ListUsers returns the roster, newest first.
func (s *UserService) ListUsers(ctx context.Context, principal *auth.Principal) ([]domain.User, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// CreateUser adds an account. Email uniqueness is case-insensitive.
func (s *UserService) CreateUser(ctx context.Context, principal *auth.Principal, input UserCreateInput) (*domain.User, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = domain.RoleUser
	}

	issues := map[string]any{}
	if input.Name == "" {
		issues["name"] = "required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		issues["email"] = "must be a valid email address"
	}
	if len(input.Password) < 8 {
		issues["password"] = "must be at least 8 characters"
	}
	if !input.Role.Valid() {
		issues["role"] = "must be admin or user"
	}
	if len(issues) > 0 {
		return nil, apperrors.NewValidationError("validation failed", issues)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already exists", map[string]any{"email": input.Email})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser changes role and/or resets the password. A password reset
// revokes all of the account's sessions: the holder of the old credential
// must not keep a live token.
func (s *UserService) UpdateUser(ctx context.Context, principal *auth.Principal, id string, patch UserPatch) (*domain.User, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if patch.Role == nil && patch.Password == nil {
		return nil, apperrors.NewValidationError("no valid fields to update", nil)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"role": "must be admin or user"})
	}
	if patch.Password != nil && len(*patch.Password) < 8 {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"password": "must be at least 8 characters"})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}

	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	if patch.Password != nil {
		if err := s.sessions.DeleteByUser(ctx, user.ID, ""); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// DeleteUser removes an account.
func (s *UserService) DeleteUser(ctx context.Context, principal *auth.Principal, id string) error {
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return err
	}
	return s.sessions.DeleteByUser(ctx, id, "")
}
