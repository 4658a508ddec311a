package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  tier TEXT NOT NULL DEFAULT 'bronze',
  total_spent NUMERIC NOT NULL DEFAULT 0,
  sweepstakes_entries INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	return db
}

func newUser(t *testing.T, db *gorm.DB, email, first, last string, tier enums.Tier, createdAt time.Time) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		FirstName:    first,
		LastName:     last,
		Role:         enums.UserRoleCustomer,
		Tier:         tier,
		CreatedAt:    createdAt,
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), user))
	return user
}

func TestListFiltersTierAndSearch(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	smith := newUser(t, db, "ada.smith@example.com", "Ada", "Smith", enums.TierGold, base)
	newUser(t, db, "bob@example.com", "Bob", "Jones", enums.TierGold, base.Add(time.Hour))
	newUser(t, db, "carol@example.com", "Carol", "Smithers", enums.TierBronze, base.Add(2*time.Hour))

	gold := enums.TierGold
	rows, total, err := repo.List(ctx, ListParams{Tier: &gold, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, "bob@example.com", rows[0].Email)

	rows, total, err = repo.List(ctx, ListParams{Search: "SMITH", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "carol@example.com", rows[0].Email)
	assert.Equal(t, smith.ID, rows[1].ID)

	rows, total, err = repo.List(ctx, ListParams{Tier: &gold, Search: "smith", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, smith.ID, rows[0].ID)
}

func TestListPagesWithOffset(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		newUser(t, db, uuid.NewString()+"@example.com", "User", "Number", enums.TierBronze, base.Add(time.Duration(i)*time.Hour))
	}

	first, total, err := repo.List(ctx, ListParams{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, first, 2)

	second, _, err := repo.List(ctx, ListParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.True(t, first[1].CreatedAt.After(second[0].CreatedAt) || first[1].CreatedAt.Equal(second[0].CreatedAt))
}

func TestUpdatePersistsAccountChanges(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := newUser(t, db, "dana@example.com", "Dana", "Old", enums.TierSilver, time.Now().UTC())
	user.LastName = "New"
	user.IsActive = false
	require.NoError(t, repo.Update(ctx, user))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.LastName)
	assert.False(t, stored.IsActive)
}
