package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-api-service/internal/domain/user"
)

// UserRepository maps domain users to rows of the users table through GORM.
// It works with any GORM dialector; production uses PostgreSQL.
type UserRepository struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB, log *zap.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name  string `gorm:"column:name"`
	Email string `gorm:"column:email"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}

// FindAll returns every user in store order.
func (r *UserRepository) FindAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// FindByID looks a user up by primary key. The boolean is false, with a nil
// error, when no row matches.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, bool, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found in db", zap.Int64("id", id))
			return nil, false, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, true, nil
}

// Save inserts the user when it has no ID and otherwise writes every column
// for that ID, inserting a row with that ID if none exists.
func (r *UserRepository) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := toSchema(u)

	if u.IsNew() {
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			r.log.Error("failed to insert user in db", zap.Error(err), zap.String("email", u.Email))
			return nil, fmt.Errorf("failed to insert user: %w", err)
		}
		r.log.Info("user inserted in db", zap.Int64("id", model.ID))
	} else {
		if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
			r.log.Error("failed to save user in db", zap.Error(err), zap.Int64("id", u.ID))
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
		r.log.Info("user saved in db", zap.Int64("id", model.ID))
	}

	saved := model.toDomain()
	return &saved, nil
}

// Delete removes the row matching u.ID. Removing a row that is already gone
// is not an error.
func (r *UserRepository) Delete(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	res := r.db.WithContext(ctx).Where("id = ?", u.ID).Delete(&UserSchema{})
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", u.ID))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	r.log.Info("user deleted in db", zap.Int64("id", u.ID), zap.Int64("rows", res.RowsAffected))
	return nil
}
