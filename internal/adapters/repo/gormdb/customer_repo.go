package gormdb

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/domain"
)

type CustomerRepo struct{ db *gorm.DB }

var _ domain.CustomerRepo = (*CustomerRepo)(nil)

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertCustomers(tx, []*domain.Customer{c})
	})
}

func (r *CustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	if c == nil || c.ID == uuid.Nil {
		return errors.New("empty customer id")
	}
	if err := domain.ValidateCustomer(c); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Customer
		if err := tx.First(&cur, "id = ?", c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var taken int64
		if err := tx.Model(&domain.Customer{}).Where("pesel = ? AND id <> ?", c.Pesel, c.ID).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return domain.NewIntegrityError("pesel", "unique", "")
		}
		c.CreatedAt = cur.CreatedAt
		return translate(tx.Save(c).Error)
	})
}

func (r *CustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) FindByPesel(ctx context.Context, pesel string) (*domain.Customer, error) {
	var c domain.Customer
	if pesel == "" {
		return nil, errors.New("empty pesel")
	}
	if err := r.db.WithContext(ctx).First(&c, "pesel = ?", pesel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, int64, error) {
	var list []domain.Customer
	q := r.db.WithContext(ctx).Model(&domain.Customer{})
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR pesel LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case "newest":
		q = q.Order("created_at desc")
	case "age":
		q = q.Order("age asc").Order("name asc")
	default:
		q = q.Order("name asc")
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Offset(offset).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *CustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
