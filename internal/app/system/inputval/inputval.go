// internal/app/system/inputval/inputval.go
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("team_role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseTaskStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
		_, ok := models.ParsePrivacy(fl.Field().String())
		return ok
	})
	return v
}

// Struct validates a request struct against its `validate` tags and returns
// an apperr validation error describing the first failing fields.
func Struct(op string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(op, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation(op, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "team_role":
		return fmt.Sprintf("%s must be one of video_editor, thumbnail_designer, metadata_manager", fe.Field())
	case "task_status":
		return fmt.Sprintf("%s must be one of assigned, in_progress, completed", fe.Field())
	case "privacy":
		return fmt.Sprintf("%s must be one of public, private, unlisted", fe.Field())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
