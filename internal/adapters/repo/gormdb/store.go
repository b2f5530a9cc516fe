package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/domain"
)

// Store owns the handle every session and repository is derived from.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *gorm.DB { return s.db }

func entities() []any {
	return []any{&domain.Customer{}}
}

// CreateAll creates every table with its column constraints.
func (s *Store) CreateAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(entities()...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DropAll drops every table CreateAll created.
func (s *Store) DropAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Migrator().DropTable(entities()...); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// HasSchema reports whether the customers table exists.
func (s *Store) HasSchema(ctx context.Context) bool {
	return s.db.WithContext(ctx).Migrator().HasTable(&domain.Customer{})
}

func (s *Store) Session() *Session { return newSession(s.db) }

func (s *Store) Customers() *CustomerRepo { return NewCustomerRepo(s.db) }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
