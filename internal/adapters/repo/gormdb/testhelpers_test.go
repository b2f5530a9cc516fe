package gormdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/booklibrary/internal/domain"
)

// newTestStore opens a private in-memory database, creates the schema and
// drops it again when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := NewStore(db)
	require.NoError(t, s.CreateAll(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, s.DropAll(context.Background()))
		_ = s.Close()
	})
	return s
}

func newCustomer(name, pesel string) *domain.Customer {
	return &domain.Customer{Name: name, City: "City", Age: 40, Pesel: pesel, Street: "Street St", AppNo: "123"}
}

func countCustomers(t *testing.T, s *Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(&domain.Customer{}).Count(&n).Error)
	return n
}
