package user

import (
	"context"

	"go.uber.org/zap"

	domain "user-api-service/internal/domain/user"
	pkgerrors "user-api-service/pkg/errors"
)

// Repository defines the interface for user data access operations.
type Repository interface {
	// FindAll returns every user in store order.
	FindAll(ctx context.Context) ([]domain.User, error)
	// FindByID reports false, with a nil error, when no row matches.
	FindByID(ctx context.Context, id int64) (*domain.User, bool, error)
	// Save inserts when the ID is unset and upserts by ID otherwise.
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	// Delete removes the row matching u.ID.
	Delete(ctx context.Context, u *domain.User) error
}

// Usecase implements the business logic for user management operations.
// Update and delete always look the user up first so a missing id surfaces
// as a NotFoundError instead of a silent no-op.
type Usecase struct {
	repo Repository  // Repository for data access
	log  *zap.Logger // Logger for structured logging
}

var _ UserUsecase = (*Usecase)(nil)

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log}
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// ListUsers returns every stored user.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	domainUsers, err := uc.repo.FindAll(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}

	uc.log.Debug("listed users", zap.Int("count", len(users)))
	return &ListUsersResponse{Users: users}, nil
}

// CreateUser stores a new user and returns it with its assigned ID.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	uc.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	saved, err := uc.repo.Save(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	return toDTO(saved), nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	u, err := uc.findExisting(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return toDTO(u), nil
}

// UpdateUser overwrites the name and email of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	uc.log.Info("updating user", zap.Int64("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	u, err := uc.findExisting(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	u.Name = in.Name
	u.Email = in.Email

	saved, err := uc.repo.Save(ctx, u)
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	return toDTO(saved), nil
}

// DeleteUser removes an existing user.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	u, err := uc.findExisting(ctx, in.ID)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, u); err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete user", err)
	}

	return nil
}

// findExisting loads the user or returns a NotFoundError for the id.
func (uc *Usecase) findExisting(ctx context.Context, id int64) (*domain.User, error) {
	u, found, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		uc.log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if !found {
		uc.log.Warn("user not found", zap.Int64("id", id))
		return nil, pkgerrors.NewUserNotFoundError(id)
	}
	return u, nil
}
