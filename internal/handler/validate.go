package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/eventcat/internal/model"
)

// Validator adapts go-playground/validator to echo's Validator hook so
// handlers can call c.Validate on request structs.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the "enum" tag and unwraps model.Optional fields
// so standard tags apply to the carried value.
func NewValidator() *Validator {
	v := validator.New()

	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(model.Enum)
		return ok && e.Valid()
	})

	registerOptional[string](v)
	registerOptional[int64](v)
	registerOptional[bool](v)
	registerOptional[model.Timestamp](v)
	registerOptional[model.TicketCategory](v)
	registerOptional[model.TicketType](v)
	registerOptional[model.District](v)
	registerOptional[model.Price](v)

	return &Validator{v: v}
}

// registerOptional makes absent or null Optional[T] look like a nil *T,
// so "omitnil" skips them, and a set one look like its value.
func registerOptional[T any](v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if o, ok := f.Interface().(model.Optional[T]); ok {
			return o.Ptr()
		}
		return nil
	}, model.Optional[T]{})
}

// Validate implements echo.Validator.  Validation failures are returned as
// *ValidationError.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Loc:  []string{"body", fe.Field()},
			Msg:  fieldMessage(fe),
			Type: fieldErrorType(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "enum":
		return "Input should be one of: " + strings.Join(enumValues(fe.Field()), ", ")
	case "gte":
		return "Input should be greater than or equal to " + fe.Param()
	case "gt":
		return "Input should be greater than " + fe.Param()
	case "eq":
		if fe.Field() == "suspendida" {
			return "Suspension cannot be reverted"
		}
		return "Input should be " + fe.Param()
	}
	return "Invalid value (" + fe.Tag() + ")"
}

func fieldErrorType(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "missing"
	case "enum":
		return "enum"
	case "gte":
		return "greater_than_equal"
	case "gt":
		return "greater_than"
	}
	return "value_error"
}

func enumValues(field string) []string {
	var out []string
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	switch field {
	case "ticket":
		for _, v := range model.TicketCategories() {
			out = append(out, string(v))
		}
	case "ticket_tipo":
		for _, v := range model.TicketTypes() {
			out = append(out, string(v))
		}
	case "eventual_distrito":
		for _, v := range model.Districts() {
			out = append(out, string(v))
		}
	}
	return out
}
