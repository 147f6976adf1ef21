// Package testdb opens throwaway sqlite databases with the production schema for tests.
package testdb

import (
	"fmt"
	"testing"

	"infinity/internal/database"
	"infinity/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database. A single connection keeps the
// in-memory database alive and serializes writers the way row locks would.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUsers creates n users named user1..userN and returns them in id order.
func SeedUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	t.Helper()
	users := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		u := models.User{
			Username:    fmt.Sprintf("user%d", i),
			Email:       fmt.Sprintf("user%d@example.com", i),
			DisplayName: fmt.Sprintf("User %d", i),
		}
		require.NoError(t, db.Create(&u).Error)
		users = append(users, u)
	}
	return users
}

// Befriend stores an accepted friendship between a and b.
func Befriend(t *testing.T, db *gorm.DB, a, b uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Friendship{
		RequesterID: a,
		AddresseeID: b,
		Status:      "ACCEPTED",
	}).Error)
}
