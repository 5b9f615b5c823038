package postgres

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-api-service/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every pooled connection to :memory: is its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(&UserSchema{})
	require.NoError(t, err)

	return db
}

func setupTestRepo(t *testing.T) *UserRepository {
	return NewUserRepository(setupTestDB(t), zaptest.NewLogger(t))
}

func TestUserRepository_Save_InsertAssignsID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, &user.User{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)
	second, err := repo.Save(ctx, &user.User{Name: "Bob", Email: "b@x.com"})
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.NotZero(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Alice", first.Name)
	assert.Equal(t, "a@x.com", first.Email)
}

func TestUserRepository_Save_DoesNotMutateInput(t *testing.T) {
	repo := setupTestRepo(t)
	in := &user.User{Name: "Alice", Email: "a@x.com"}

	out, err := repo.Save(context.Background(), in)
	require.NoError(t, err)

	assert.Zero(t, in.ID)
	assert.NotZero(t, out.ID)
}

func TestUserRepository_Save_UpdatesExisting(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Save(ctx, &user.User{Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)

	created.Name = "Alicia"
	created.Email = "a2@x.com"
	updated, err := repo.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	found, ok, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user.User{ID: created.ID, Name: "Alicia", Email: "a2@x.com"}, *found)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepository_Save_UpsertsUnknownID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, &user.User{ID: 42, Name: "Ghost", Email: "g@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), saved.ID)

	found, ok, err := repo.FindByID(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ghost", found.Name)
}

func TestUserRepository_Save_Nil(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Save(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepository_FindByID_Missing(t *testing.T) {
	repo := setupTestRepo(t)

	found, ok, err := repo.FindByID(context.Background(), 99)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestUserRepository_FindAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	empty, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	// duplicate emails and empty names are stored as given
	testUsers := []user.User{
		{Name: "John Doe", Email: "john@example.com"},
		{Name: "", Email: "john@example.com"},
		{Name: "Admin", Email: "not-an-email"},
	}
	for _, u := range testUsers {
		_, err := repo.Save(ctx, &u)
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, u := range all {
		assert.NotZero(t, u.ID)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	keep, err := repo.Save(ctx, &user.User{Name: "Keep", Email: "k@x.com"})
	require.NoError(t, err)
	gone, err := repo.Save(ctx, &user.User{Name: "Gone", Email: "g@x.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, gone))

	_, ok, err := repo.FindByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.FindByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// already absent
	assert.NoError(t, repo.Delete(ctx, gone))
}

func TestUserRepository_ClosedDB(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, zaptest.NewLogger(t))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx := context.Background()

	_, err = repo.FindAll(ctx)
	assert.ErrorContains(t, err, "failed to list users")

	_, _, err = repo.FindByID(ctx, 1)
	assert.ErrorContains(t, err, "failed to get user")

	_, err = repo.Save(ctx, &user.User{Name: "A"})
	assert.ErrorContains(t, err, "failed to insert user")

	err = repo.Delete(ctx, &user.User{ID: 1})
	assert.ErrorContains(t, err, "failed to delete user")
}
