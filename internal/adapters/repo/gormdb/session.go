package gormdb

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/domain"
)

// Session stages customers and writes them in one transaction on Commit.
// It is not safe for concurrent use; open one per request or test.
type Session struct {
	db      *gorm.DB
	pending []*domain.Customer
	closed  bool
}

func newSession(db *gorm.DB) *Session { return &Session{db: db} }

// Add stages customers for insert. Nothing is checked until Commit.
func (s *Session) Add(cs ...*domain.Customer) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.pending = append(s.pending, cs...)
	return nil
}

func (s *Session) Pending() int { return len(s.pending) }

// Commit validates every staged customer and inserts them all, or none.
// The staged set is cleared either way.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	batch := s.pending
	s.pending = nil
	if len(batch) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertCustomers(tx, batch)
	})
	if err != nil {
		zlog.Debug().Err(err).Int("staged", len(batch)).Msg("commit rejected")
		return err
	}
	return nil
}

// Rollback discards staged customers.
func (s *Session) Rollback() {
	s.pending = nil
}

func (s *Session) Close() error {
	s.pending = nil
	s.closed = true
	return nil
}

// insertCustomers is the validate-then-write step shared by Session.Commit
// and CustomerRepo.Create. It must run inside a transaction.
func insertCustomers(tx *gorm.DB, batch []*domain.Customer) (err error) {
	seen := make(map[string]struct{}, len(batch))
	pesels := make([]string, 0, len(batch))
	for _, c := range batch {
		if err := domain.ValidateCustomer(c); err != nil {
			return err
		}
		if _, dup := seen[c.Pesel]; dup {
			return domain.NewIntegrityError("pesel", "unique", "")
		}
		seen[c.Pesel] = struct{}{}
		pesels = append(pesels, c.Pesel)
	}

	var taken int64
	if err := tx.Model(&domain.Customer{}).Where("pesel IN ?", pesels).Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return domain.NewIntegrityError("pesel", "unique", "")
	}

	assigned := make([]*domain.Customer, 0, len(batch))
	defer func() {
		if err != nil {
			for _, c := range assigned {
				c.ID = uuid.Nil
			}
		}
	}()
	for _, c := range batch {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
			assigned = append(assigned, c)
		}
	}
	if err := tx.Create(batch).Error; err != nil {
		return translate(err)
	}
	return nil
}
