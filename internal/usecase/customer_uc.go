package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/booklibrary/internal/adapters/sheet"
	"github.com/phenrril/booklibrary/internal/domain"
)

type CustomerUC struct {
	Customers domain.CustomerRepo
}

// CustomerPatch carries a partial update; nil fields are left as they are.
type CustomerPatch struct {
	Name   *string `json:"name"`
	City   *string `json:"city"`
	Age    *int    `json:"age"`
	Pesel  *string `json:"pesel"`
	Street *string `json:"street"`
	AppNo  *string `json:"app_no"`
}

func (p CustomerPatch) apply(c *domain.Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.City != nil {
		c.City = *p.City
	}
	if p.Age != nil {
		c.Age = *p.Age
	}
	if p.Pesel != nil {
		c.Pesel = *p.Pesel
	}
	if p.Street != nil {
		c.Street = *p.Street
	}
	if p.AppNo != nil {
		c.AppNo = *p.AppNo
	}
}

func (uc *CustomerUC) Register(ctx context.Context, c *domain.Customer) error {
	if c == nil {
		return errors.New("customer nil")
	}
	// the store assigns ids
	c.ID = uuid.Nil
	if err := uc.Customers.Create(ctx, c); err != nil {
		return err
	}
	zlog.Info().Str("customer_id", c.ID.String()).Msg("customer registered")
	return nil
}

func (uc *CustomerUC) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	if id == uuid.Nil {
		return nil, domain.ErrNotFound
	}
	return uc.Customers.FindByID(ctx, id)
}

func (uc *CustomerUC) List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	if f.PageSize > 200 {
		f.PageSize = 200
	}
	return uc.Customers.List(ctx, f)
}

func (uc *CustomerUC) Update(ctx context.Context, id uuid.UUID, p CustomerPatch) (*domain.Customer, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.apply(c)
	if err := uc.Customers.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CustomerUC) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.ErrNotFound
	}
	if err := uc.Customers.Delete(ctx, id); err != nil {
		return err
	}
	zlog.Info().Str("customer_id", id.String()).Msg("customer deleted")
	return nil
}

// Export pages through every customer, sorted by name.
func (uc *CustomerUC) Export(ctx context.Context) ([]domain.Customer, error) {
	const pageSize = 200
	var out []domain.Customer
	for page := 1; ; page++ {
		list, total, err := uc.Customers.List(ctx, domain.CustomerFilter{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
		if len(list) == 0 || int64(page*pageSize) >= total {
			break
		}
	}
	return out, nil
}

type ImportReport struct {
	Created   int           `json:"created"`
	Rejected  int           `json:"rejected"`
	Errors    []ImportError `json:"errors,omitempty"`
	CreatedID []uuid.UUID   `json:"created_ids,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type ImportError struct {
	Line       int                `json:"line"`
	Message    string             `json:"message"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// Import registers every row on its own; a rejected row does not stop the
// rest. Only errors other than integrity violations abort the import.
func (uc *CustomerUC) Import(ctx context.Context, rows []sheet.Row) (*ImportReport, error) {
	rep := &ImportReport{Timestamp: time.Now()}
	for _, r := range rows {
		c := r.Customer
		if r.AgeText != "" {
			rep.Rejected++
			rep.Errors = append(rep.Errors, ImportError{
				Line:       r.Line,
				Message:    "age is not a number",
				Violations: []domain.Violation{{Field: "age", Rule: "number"}},
			})
			continue
		}
		err := uc.Customers.Create(ctx, &c)
		if err == nil {
			rep.Created++
			rep.CreatedID = append(rep.CreatedID, c.ID)
			continue
		}
		ie, ok := domain.AsIntegrity(err)
		if !ok {
			return rep, err
		}
		rep.Rejected++
		rep.Errors = append(rep.Errors, ImportError{Line: r.Line, Message: ie.Error(), Violations: ie.Violations})
	}
	zlog.Info().Int("created", rep.Created).Int("rejected", rep.Rejected).Msg("customer import")
	return rep, nil
}
