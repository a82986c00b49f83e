package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"lambdakit/pkg/logctx"
	"lambdakit/pkg/problem"
)

var validate = validator.New()

// Validated adapts typed business logic into the pipeline's Handler shape:
// decode the raw payload into Req, check its constraint tags, invoke fn,
// and serialize the typed response. Invalid input never reaches fn; it
// surfaces as a 422 validation problem.
func Validated[Req any](fn HandlerFunc[Req]) Handler {
	return func(ctx context.Context, event json.RawMessage) (Envelope, error) {
		req, err := DecodeValidated[Req](event)
		if err != nil {
			return Envelope{}, err
		}
		logctx.Logger(ctx).WithField("event", req).Debug("parsed_event")

		resp, err := fn(ctx, req)
		if err != nil {
			return Envelope{}, err
		}
		return Serialize(resp)
	}
}

// DecodeValidated decodes raw JSON into T and validates its constraint tags.
// Malformed JSON and tag violations both come back as a validation problem
// with one extension entry per failed field.
func DecodeValidated[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, problem.Validation([]problem.FieldViolation{{
			Field:   "body",
			Tag:     "json",
			Message: "request body is not valid JSON",
		}})
	}

	if !validatable(v) {
		return v, nil
	}
	if err := validate.Struct(v); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) {
			return v, problem.Validation(formatViolations(violations))
		}
		return v, fmt.Errorf("validate request: %w", err)
	}

	return v, nil
}

// validatable reports whether v is something validator.Struct accepts. Scalar,
// map and slice payloads carry no constraint tags and pass through unchecked.
func validatable(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

func formatViolations(validationErrors validator.ValidationErrors) []problem.FieldViolation {
	var violations []problem.FieldViolation

	for _, err := range validationErrors {
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("%s is invalid", err.Field())
		}

		violations = append(violations, problem.FieldViolation{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Value:   fmt.Sprintf("%v", err.Value()),
			Message: message,
		})
	}

	return violations
}
