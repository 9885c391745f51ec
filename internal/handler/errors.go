package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FieldError describes one rejected request field.  Loc is the path to the
// field, starting with "body" or "path".
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError collects every field rejected by a validation pass.  It
// is rendered as HTTP 422.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, strings.Join(f.Loc, ".")+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidPath(name, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Loc: []string{"path", name}, Msg: msg, Type: "int_parsing"}}}
}

// bindJSON decodes the request body into dst and runs the validator.  An
// empty body decodes as an empty object.  Type mismatches become
// *ValidationError naming the field; malformed JSON or data after the
// object is a 400.
func bindJSON(c echo.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	err := dec.Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return decodeError(err)
	default:
		// exactly one JSON value per body
		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON: unexpected data after the request object")
		}
	}
	return c.Validate(dst)
}

func decodeError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		loc := []string{"body"}
		if te.Field != "" {
			loc = append(loc, strings.Split(te.Field, ".")...)
		}
		return &ValidationError{Fields: []FieldError{{
			Loc:  loc,
			Msg:  typeMessage(te),
			Type: "type_error",
		}}}
	}
	var se *json.SyntaxError
	if errors.As(err, &se) || errors.Is(err, io.ErrUnexpectedEOF) {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON: "+err.Error())
	}
	return &ValidationError{Fields: []FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}}
}

func typeMessage(te *json.UnmarshalTypeError) string {
	switch te.Type.Name() {
	case "Timestamp":
		return "Input should be a valid datetime (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS), got " + te.Value
	case "bool":
		return "Input should be a valid boolean, got " + te.Value
	case "string", "TicketCategory", "TicketType", "District":
		return "Input should be a valid string, got " + te.Value
	case "int64", "int":
		return "Input should be a valid integer, got " + te.Value
	case "float64", "Decimal", "Price":
		return "Input should be a valid number, got " + te.Value
	}
	if te.Type.Kind().String() == "slice" {
		return "Input should be a valid list, got " + te.Value
	}
	return "Input has the wrong type, got " + te.Value
}

// detail is the error body shape shared by every failure response.
type detail struct {
	Detail interface{} `json:"detail"`
}

// ErrorHandler renders errors returned by handlers and by echo itself.
// Validation errors become 422, echo.HTTPError keeps its status and
// anything else is logged and reported as 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var (
			status = http.StatusInternalServerError
			body   = detail{Detail: "internal error"}
			verr   *ValidationError
			herr   *echo.HTTPError
		)
		switch {
		case errors.As(err, &verr):
			status = http.StatusUnprocessableEntity
			body = detail{Detail: verr.Fields}
		case errors.As(err, &herr):
			status = herr.Code
			msg := herr.Message
			if s, ok := msg.(string); ok {
				body = detail{Detail: s}
			} else if msg != nil {
				body = detail{Detail: fmt.Sprint(msg)}
			} else {
				body = detail{Detail: http.StatusText(status)}
			}
		default:
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
