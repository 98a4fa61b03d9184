package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "foodgram/internal/errors"
)

const (
	reservedUsername  = "me"
	maxUsernameLength = 150
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// ValidUsername reports whether username matches the allowed pattern and is not reserved.
func ValidUsername(username string) bool {
	return username != "" && len(username) <= maxUsernameLength &&
		!strings.EqualFold(username, reservedUsername) && usernamePattern.MatchString(username)
}

// Validator wraps go-playground/validator. Fields are named by their json tag
// and failures are reported as *apperrors.ValidationError keyed by the
// top-level field, so an error on ingredients[2].amount lands under
// "ingredients".
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that also understands the "username" and
// "notblank" tags. It satisfies echo.Validator.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}
	verr := apperrors.NewValidationError()
	for _, fe := range fieldErrs {
		field := fieldKey(fe)
		if verr.Has(field) {
			continue
		}
		verr.Add(field, message(fe))
	}
	return verr
}

// fieldKey strips the struct name and any nested path from the namespace:
// "RecipeInput.ingredients[0].amount" becomes "ingredients".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func message(fe validator.FieldError) string {
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notblank":
		return "this field may not be blank"
	case "email":
		return "enter a valid email address"
	case "min":
		if collection {
			return fmt.Sprintf("ensure this field has at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "max":
		if collection {
			return fmt.Sprintf("ensure this field has no more than %s item(s)", fe.Param())
		}
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "unique":
		return "items must be unique"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only, and not \"me\""
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
