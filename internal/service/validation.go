package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field bounds shared by every request.
const (
	minFieldLen = 1
	maxFieldLen = 100
)

// RegisterRequest carries the signup fields.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest carries the login fields.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries optional profile changes. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct returns nil or a KindValidation error listing every violation.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internalError(fmt.Errorf("validate request: %w", err))
	}
	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, describe(fe.Field(), fe.Tag(), fe.Param()))
	}
	return validationError(violations)
}

// validateUpdate checks only the fields that are present.
func validateUpdate(req UpdateUserRequest) error {
	var violations []string
	check := func(field string, value *string) {
		if value == nil {
			return
		}
		rule := fmt.Sprintf("min=%d,max=%d", minFieldLen, maxFieldLen)
		if err := validate.Var(*value, rule); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				violations = append(violations, describe(field, fieldErrs[0].Tag(), fieldErrs[0].Param()))
			}
		}
	}
	check("name", req.Name)
	check("password", req.Password)
	if len(violations) > 0 {
		return validationError(violations)
	}
	return nil
}

func describe(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	default:
		return field + " is invalid"
	}
}
