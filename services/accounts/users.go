package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/services"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/google/uuid"
)

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Email       string `json:"email" validate:"required,email"`
	Mobile      string `json:"mobile" validate:"omitempty,mobile"`
	FirstName   string `json:"first_name" validate:"max=150"`
	MiddleName  string `json:"middle_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Password    string `json:"password" validate:"required,min=6"`
	IsSuperUser bool   `json:"is_superuser"`
	IsStaff     bool   `json:"is_staff"`
}

// UpdateInput holds the mutable fields of an account. Nil fields are left unchanged.
type UpdateInput struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=150"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Mobile      *string `json:"mobile" validate:"omitempty,mobile"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	MiddleName  *string `json:"middle_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	IsSuperUser *bool   `json:"is_superuser"`
	IsStaff     *bool   `json:"is_staff"`
	IsActive    *bool   `json:"is_active"`
	IsSeparated *bool   `json:"is_separated"`
}

// Register creates an active account. Privilege flags are honoured only when
// the caller is a superuser.
func (s *Service) Register(ctx context.Context, meta audit.RequestMeta, actorID string, actorIsSuperUser bool, in RegisterInput) (*models.User, error) {
	if len(in.Password) < MinPasswordLength {
		return nil, services.ErrWeakPassword
	}

	user := models.NewUser(strings.TrimSpace(in.Username), strings.TrimSpace(in.Email), strings.TrimSpace(in.Mobile))
	user.FirstName = in.FirstName
	user.MiddleName = in.MiddleName
	user.LastName = in.LastName
	if actorIsSuperUser {
		user.IsSuperUser = in.IsSuperUser
		user.IsStaff = in.IsStaff
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashed

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateRecord
		}
		return nil, services.WrapInternal("failed to create user", err)
	}

	s.activity.Changed(meta, actorID, models.ActivityCreate, "users", "account", user.ID.String(), nil, user)
	return user, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, id)
}

// Me returns the signed in user, rejecting separated accounts
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return nil, services.ErrUnauthorized
		}
		return nil, err
	}
	if user.IsSeparated {
		return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "user is separated from the system", nil)
	}
	return user, nil
}

// Clone returns the client snapshot of the signed in user
func (s *Service) Clone(ctx context.Context, id uuid.UUID) (*models.UserClone, error) {
	user, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}
	clone := user.Clone()
	return &clone, nil
}

// List returns a page of users and the total count
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error) {
	users, total, err := s.users.List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, 0, services.WrapInternal("failed to list users", err)
	}
	return users, total, nil
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, meta audit.RequestMeta, actorID string, id uuid.UUID, in UpdateInput) (*models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *user

	fields := applyUpdate(user, in)
	if len(fields) == 0 {
		return user, nil
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, services.ErrDuplicateRecord
		case errors.Is(err, repositories.ErrNotFound):
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to update user", err)
	}

	s.resolver.Forget(user.ID)
	s.activity.Changed(meta, actorID, models.ActivityUpdate, "users", "account", user.ID.String(), &previous, user, fields...)
	return user, nil
}

// Delete removes a user
func (s *Service) Delete(ctx context.Context, meta audit.RequestMeta, actorID string, id uuid.UUID) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrUserNotFound
		}
		return services.WrapInternal("failed to delete user", err)
	}

	s.resolver.Forget(id)
	s.activity.Changed(meta, actorID, models.ActivityDelete, "users", "account", id.String(), user, nil)
	return nil
}

func (s *Service) getUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to get user", err)
	}
	return user, nil
}

func applyUpdate(user *models.User, in UpdateInput) []string {
	var fields []string
	setString := func(name string, dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = strings.TrimSpace(*src)
			fields = append(fields, name)
		}
	}
	setBool := func(name string, dst *bool, src *bool) {
		if src != nil && *src != *dst {
			*dst = *src
			fields = append(fields, name)
		}
	}

	setString("username", &user.Username, in.Username)
	if in.Email != nil {
		lowered := strings.ToLower(*in.Email)
		setString("email", &user.Email, &lowered)
	}
	setString("mobile", &user.Mobile, in.Mobile)
	setString("first_name", &user.FirstName, in.FirstName)
	setString("middle_name", &user.MiddleName, in.MiddleName)
	setString("last_name", &user.LastName, in.LastName)
	setBool("is_superuser", &user.IsSuperUser, in.IsSuperUser)
	setBool("is_staff", &user.IsStaff, in.IsStaff)
	setBool("is_active", &user.IsActive, in.IsActive)
	setBool("is_separated", &user.IsSeparated, in.IsSeparated)
	return fields
}
