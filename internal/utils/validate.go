package util

import (
	"regexp"
	"slices"

	"placement-portal/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
)

// Courses accepted on student registration.
var Courses = []string{"BTech", "MTech", "BCA", "MCA", "BBA", "MBA", "Diploma"}

// Roles an account can hold.
var Roles = []string{"admin", "faculty", "student"}

var rePhone = regexp.MustCompile(`^\+\d{10,15}$`)

// NewValidator returns a validator with the portal's custom tags registered:
// password, phone, course and role.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()

	if err := crypto.RegisterPasswordValidator(v); err != nil {
		return nil, err
	}

	rules := map[string]validator.Func{
		"phone": func(fl validator.FieldLevel) bool {
			return rePhone.MatchString(fl.Field().String())
		},
		"course": func(fl validator.FieldLevel) bool {
			return slices.Contains(Courses, fl.Field().String())
		},
		"role": func(fl validator.FieldLevel) bool {
			return slices.Contains(Roles, fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}
	return v, nil
}
