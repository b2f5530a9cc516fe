package gormdb

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/domain"
)

// ErrSessionClosed is returned by a Session used after Close.
var ErrSessionClosed = errors.New("session closed")

// columns maps store column names back to the json field names used in
// violations.
var columns = map[string]string{
	"name":   "name",
	"city":   "city",
	"age":    "age",
	"pesel":  "pesel",
	"street": "street",
	"app_no": "app_no",
}

// translate turns store constraint failures into *domain.IntegrityError and
// returns every other error untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsIntegrity(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.IntegrityError{Violations: []domain.Violation{{Rule: "unique"}}, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if v, ok := pgViolation(pgErr); ok {
			return &domain.IntegrityError{Violations: []domain.Violation{v}, Err: err}
		}
		return err
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
		return &domain.IntegrityError{Violations: []domain.Violation{sqliteViolation(sqErr)}, Err: err}
	}
	return err
}

func pgViolation(e *pgconn.PgError) (domain.Violation, bool) {
	field := columns[e.ColumnName]
	switch e.Code {
	case "23505":
		if field == "" {
			field = constraintField(e.ConstraintName)
		}
		return domain.Violation{Field: field, Rule: "unique"}, true
	case "23502":
		return domain.Violation{Field: field, Rule: "required"}, true
	case "23514":
		if field == "" {
			field = constraintField(e.ConstraintName)
		}
		return domain.Violation{Field: field, Rule: "check"}, true
	case "22001":
		return domain.Violation{Field: field, Rule: "max"}, true
	}
	if strings.HasPrefix(e.Code, "23") {
		return domain.Violation{Field: field, Rule: "constraint"}, true
	}
	return domain.Violation{}, false
}

// sqlite reports the failing column only in the message, e.g.
// "UNIQUE constraint failed: customers.pesel" or
// "CHECK constraint failed: chk_customers_age".
func sqliteViolation(e sqlite3.Error) domain.Violation {
	msg := e.Error()
	field := ""
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		ref := strings.TrimSpace(msg[i+2:])
		if j := strings.LastIndex(ref, "."); j >= 0 {
			field = columns[ref[j+1:]]
		} else {
			field = constraintField(ref)
		}
	}
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return domain.Violation{Field: field, Rule: "unique"}
	case sqlite3.ErrConstraintNotNull:
		return domain.Violation{Field: field, Rule: "required"}
	case sqlite3.ErrConstraintCheck:
		return domain.Violation{Field: field, Rule: "check"}
	}
	return domain.Violation{Field: field, Rule: "constraint"}
}

// constraintField recovers the column from our constraint names
// (idx_customers_pesel, chk_customers_app_no).
func constraintField(name string) string {
	for _, prefix := range []string{"idx_customers_", "chk_customers_", "customers_"} {
		if strings.HasPrefix(name, prefix) {
			col := strings.TrimSuffix(strings.TrimPrefix(name, prefix), "_key")
			return columns[col]
		}
	}
	return ""
}
