package account

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"factory-erp/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// max counts runes; maxbytes counts the encoded length.
	if err := v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	}); err != nil {
		panic(err)
	}
	return v
}

type LoginInput struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	CompanyCode string `json:"companyCode,omitempty"`
}

// RegisterInput is the self-registration payload. bcrypt rejects passwords
// over 72 bytes.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
	FullName    string `json:"fullName" validate:"max=128"`
	CompanyCode string `json:"companyCode,omitempty" validate:"omitempty,max=32"`
}

func (in *LoginInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.CompanyCode = strings.TrimSpace(in.CompanyCode)
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.CompanyCode = strings.TrimSpace(in.CompanyCode)
}

// check runs struct validation and converts failures into a validation
// error with one message per field, keyed by json name.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = fmt.Sprintf("%s is required", name)
		case "email":
			fields[name] = fmt.Sprintf("%s must be a valid email", name)
		case "min":
			fields[name] = fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		case "max":
			fields[name] = fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		case "maxbytes":
			fields[name] = fmt.Sprintf("%s must be at most %s bytes", name, fe.Param())
		default:
			fields[name] = fmt.Sprintf("%s is invalid", name)
		}
	}

	msg := "validation failed"
	if len(fields) == 1 {
		for _, m := range fields {
			msg = m
		}
	}
	return apperr.InvalidFields(msg, fields)
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
