package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"storybook-server/internal/models"
	"storybook-server/internal/prompts"
)

// storyID идёт в ключи объектов, поэтому без слэшей и точек в начале.
var objectKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// NewValidator регистрирует правила agerange и objectkey.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях об ошибках - имена полей из JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("agerange", func(fl validator.FieldLevel) bool {
		return prompts.IsKnownAgeRange(fl.Field().String())
	})
	_ = v.RegisterValidation("objectkey", func(fl validator.FieldLevel) bool {
		return objectKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateRequest приводит ошибки validator к models.ErrValidation с перечнем полей.
func validateRequest(v *validator.Validate, req *models.GenerateChapterRequest) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	problems := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		case "agerange":
			problems = append(problems, fmt.Sprintf("%s %q is not one of: %s", fe.Field(), fe.Value(), strings.Join(prompts.AgeRanges, ", ")))
		case "objectkey":
			problems = append(problems, fmt.Sprintf("%s contains unsupported characters", fe.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
}
