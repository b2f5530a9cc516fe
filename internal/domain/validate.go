package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func customerValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateCustomer checks c against the column rules and returns an
// *IntegrityError listing every violation, or nil.
func ValidateCustomer(c *Customer) error {
	if c == nil {
		return NewIntegrityError("", "required", "")
	}
	err := customerValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ie := &IntegrityError{}
	for _, fe := range fieldErrs {
		ie.Violations = append(ie.Violations, Violation{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return ie
}
