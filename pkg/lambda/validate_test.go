package lambda

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"lambdakit/pkg/logctx"
	"lambdakit/pkg/problem"
)

type signupRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"min=18"`
}

func TestDecodeValidated(t *testing.T) {
	t.Run("ValidPayload", func(t *testing.T) {
		req, err := DecodeValidated[signupRequest]([]byte(`{"name":"Ana","email":"ana@example.com","age":30}`))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if req.Name != "Ana" || req.Email != "ana@example.com" || req.Age != 30 {
			t.Errorf("Unexpected decoded request: %+v", req)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := DecodeValidated[signupRequest]([]byte(`{"name":`))
		if !problem.IsValidation(err) {
			t.Fatalf("Expected validation problem, got %v", err)
		}

		var p *problem.Problem
		errors.As(err, &p)
		violations, ok := p.Extensions.([]problem.FieldViolation)
		if !ok || len(violations) != 1 {
			t.Fatalf("Expected one violation, got %+v", p.Extensions)
		}
		if violations[0].Field != "body" || violations[0].Tag != "json" {
			t.Errorf("Unexpected violation: %+v", violations[0])
		}
	})

	t.Run("ConstraintViolations", func(t *testing.T) {
		_, err := DecodeValidated[signupRequest]([]byte(`{"email":"not-an-email","age":12}`))
		if !problem.IsValidation(err) {
			t.Fatalf("Expected validation problem, got %v", err)
		}

		var p *problem.Problem
		errors.As(err, &p)
		if p.Status != 422 {
			t.Errorf("Expected status 422, got %d", p.Status)
		}
		violations := p.Extensions.([]problem.FieldViolation)
		if len(violations) != 3 {
			t.Fatalf("Expected 3 violations, got %d: %+v", len(violations), violations)
		}

		byField := make(map[string]problem.FieldViolation)
		for _, v := range violations {
			byField[v.Field] = v
		}
		if v := byField["Name"]; v.Tag != "required" || v.Message != "Name is required" {
			t.Errorf("Unexpected Name violation: %+v", v)
		}
		if v := byField["Email"]; v.Tag != "email" || v.Message != "Email must be a valid email address" {
			t.Errorf("Unexpected Email violation: %+v", v)
		}
		if v := byField["Age"]; v.Tag != "min" || v.Message != "Age must be at least 18" || v.Value != "12" {
			t.Errorf("Unexpected Age violation: %+v", v)
		}
	})

	t.Run("NonStructPayload", func(t *testing.T) {
		got, err := DecodeValidated[map[string]any]([]byte(`{"anything":"goes"}`))
		if err != nil {
			t.Fatalf("Expected no error for a map payload, got %v", err)
		}
		if got["anything"] != "goes" {
			t.Errorf("Unexpected decoded map: %+v", got)
		}
	})
}

func TestValidatedInvokesHandler(t *testing.T) {
	handler := Validated(func(ctx context.Context, req signupRequest) (*Response, error) {
		return &Response{StatusCode: 201, Body: map[string]string{"name": req.Name}}, nil
	})

	env, err := handler(context.Background(), []byte(`{"name":"Ana","email":"ana@example.com","age":30}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if env.StatusCode != 201 {
		t.Errorf("Expected status 201, got %d", env.StatusCode)
	}
	if env.Body == nil || *env.Body != `{"name":"Ana"}` {
		t.Errorf("Unexpected body: %v", env.Body)
	}
}

func TestValidatedRejectsBeforeHandler(t *testing.T) {
	called := false
	handler := Validated(func(ctx context.Context, req signupRequest) (*Response, error) {
		called = true
		return &Response{}, nil
	})

	_, err := handler(context.Background(), []byte(`{}`))
	if !problem.IsValidation(err) {
		t.Fatalf("Expected validation problem, got %v", err)
	}
	if called {
		t.Error("Handler should not run for invalid input")
	}
}

func TestValidatedPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	handler := Validated(func(ctx context.Context, req map[string]any) (*Response, error) {
		return nil, boom
	})

	_, err := handler(context.Background(), []byte(`{}`))
	if !errors.Is(err, boom) {
		t.Errorf("Expected handler error to propagate, got %v", err)
	}
}

func TestValidatedLogsParsedEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	ctx := logctx.WithLogger(context.Background(), logger)

	handler := Validated(func(ctx context.Context, req signupRequest) (*Response, error) {
		return &Response{Body: "ok"}, nil
	})
	if _, err := handler(ctx, []byte(`{"name":"Ana","email":"ana@example.com","age":30}`)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "parsed_event" {
			found = true
			if entry.Level != logrus.DebugLevel {
				t.Errorf("Expected debug level, got %v", entry.Level)
			}
			if _, ok := entry.Data["event"]; !ok {
				t.Error("Expected event field on parsed_event record")
			}
		}
	}
	if !found {
		t.Error("Expected a parsed_event record")
	}
}
