package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Column bounds, in characters.
const (
	NameMaxLen   = 64
	CityMaxLen   = 64
	StreetMaxLen = 64
	PeselMaxLen  = 11
	AppNoMaxLen  = 10
)

// Customer is a library member. Values are kept exactly as given; the only
// gate is ValidateCustomer, run when the row is committed.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;check:chk_customers_name,length(name) BETWEEN 1 AND 64" json:"name" validate:"required,max=64"`
	City      string    `gorm:"size:64;not null;check:chk_customers_city,length(city) BETWEEN 1 AND 64" json:"city" validate:"required,max=64"`
	Age       int       `gorm:"not null;check:chk_customers_age,age > 0" json:"age" validate:"gt=0"`
	Pesel     string    `gorm:"size:11;not null;uniqueIndex:idx_customers_pesel;check:chk_customers_pesel,length(pesel) BETWEEN 1 AND 11" json:"pesel" validate:"required,max=11"`
	Street    string    `gorm:"size:64;not null;check:chk_customers_street,length(street) BETWEEN 1 AND 64" json:"street" validate:"required,max=64"`
	AppNo     string    `gorm:"column:app_no;size:10;not null;check:chk_customers_app_no,length(app_no) BETWEEN 1 AND 10" json:"app_no" validate:"required,max=10"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

type CustomerFilter struct {
	Query    string
	City     string
	Sort     string // name (default) | newest | age
	Page     int
	PageSize int
}

type CustomerRepo interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByPesel(ctx context.Context, pesel string) (*Customer, error)
	List(ctx context.Context, f CustomerFilter) ([]Customer, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
