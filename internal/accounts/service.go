// Package accounts manages users and organizations: the two account kinds
// that can author content and hold relationships.
package accounts

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/passwords"
	"github.com/onechurch/backend/pkg/result"
)

// Service implements account CRUD on a store.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an accounts service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// CreateUserInput is the data required to register a user.
type CreateUserInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	PfpURL   string `json:"pfp_url"`
	Bio      string `json:"bio"`
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	Username *string `json:"username"`
	PfpURL   *string `json:"pfp_url"`
	Bio      *string `json:"bio"`
}

// CreateUser registers a user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) result.Result[models.UserPublic] {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return result.Fail[models.UserPublic](result.KindValidation, "username and password required")
	}
	hashed, err := passwords.Hash(in.Password)
	if err != nil {
		s.logger.Error("hash password", zap.Error(err))
		return result.Fail[models.UserPublic](result.KindInternal, "failed to create user")
	}
	u := &models.User{Username: in.Username, Password: hashed, PfpURL: in.PfpURL, Bio: in.Bio}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return store.Failure[models.UserPublic](s.logger, "create user", err, "Username already taken")
	}
	return result.OK("User created successfully", u.ToPublic())
}

// GetUser returns the public view of a user.
func (s *Service) GetUser(ctx context.Context, id int64) result.Result[models.UserPublic] {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return store.Failure[models.UserPublic](s.logger, "get user", err, "User not found")
	}
	return result.OK("User found", u.ToPublic())
}

// UpdateUser applies the set fields of in.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) result.Result[models.UserPublic] {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return store.Failure[models.UserPublic](s.logger, "get user", err, "User not found")
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return result.Fail[models.UserPublic](result.KindValidation, "username cannot be empty")
		}
		u.Username = name
	}
	if in.PfpURL != nil {
		u.PfpURL = *in.PfpURL
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		msg := "User not found"
		if errors.Is(err, store.ErrDuplicate) {
			msg = "Username already taken"
		}
		return store.Failure[models.UserPublic](s.logger, "update user", err, msg)
	}
	return result.OK("User updated successfully", u.ToPublic())
}

// ChangePassword replaces the user's password hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, newPassword string) result.Result[result.None] {
	if newPassword == "" {
		return result.Fail[result.None](result.KindValidation, "new password required")
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return store.Failure[result.None](s.logger, "get user", err, "User not found")
	}
	hashed, err := passwords.Hash(newPassword)
	if err != nil {
		s.logger.Error("hash password", zap.Error(err))
		return result.Fail[result.None](result.KindInternal, "failed to change password")
	}
	u.Password = hashed
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return store.Failure[result.None](s.logger, "change password", err, "User not found")
	}
	return result.Done("Password changed successfully")
}

// DeleteUser removes a user. Deleting an absent user is NotFound.
func (s *Service) DeleteUser(ctx context.Context, id int64) result.Result[result.None] {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return store.Failure[result.None](s.logger, "delete user", err, "User not found")
	}
	return result.Done("User deleted successfully")
}

// Authenticate checks credentials and returns the user id. It issues no session.
func (s *Service) Authenticate(ctx context.Context, username, password string) result.Result[int64] {
	const invalid = "Invalid username or password"
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[int64](result.KindNotFound, invalid)
		}
		return store.Failure[int64](s.logger, "authenticate", err, invalid)
	}
	if !passwords.Check(password, u.Password) {
		return result.Fail[int64](result.KindValidation, invalid)
	}
	return result.OK("User authenticated successfully", u.ID)
}

// AccountKind reports whether id names a user or an organization.
func (s *Service) AccountKind(ctx context.Context, id int64) (string, error) {
	if _, err := s.store.GetUser(ctx, id); err == nil {
		return "user", nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if _, err := s.store.GetOrganization(ctx, id); err != nil {
		return "", err
	}
	return "organization", nil
}
