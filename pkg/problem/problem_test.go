package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizedDefaults(t *testing.T) {
	tests := []struct {
		name       string
		problem    *Problem
		wantType   string
		wantStatus int
		wantTitle  string
		wantDetail string
	}{
		{
			name:       "zero value",
			problem:    &Problem{},
			wantType:   "about:blank",
			wantStatus: 400,
			wantTitle:  "Bad Request",
			wantDetail: "General error",
		},
		{
			name:       "status and detail set",
			problem:    New(404, "Item not found"),
			wantType:   "about:blank",
			wantStatus: 404,
			wantTitle:  "Not Found",
			wantDetail: "Item not found",
		},
		{
			name:       "declared title wins",
			problem:    &Problem{Status: 404, Title: "Missing", Detail: "gone"},
			wantType:   "about:blank",
			wantStatus: 404,
			wantTitle:  "Missing",
			wantDetail: "gone",
		},
		{
			name:       "declared type wins",
			problem:    &Problem{Type: "https://example.com/errors/teapot", Status: 418},
			wantType:   "https://example.com/errors/teapot",
			wantStatus: 418,
			wantTitle:  "I'm a teapot",
			wantDetail: "General error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.problem.Normalized()
			if n.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", n.Type, tt.wantType)
			}
			if n.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", n.Status, tt.wantStatus)
			}
			if n.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", n.Title, tt.wantTitle)
			}
			if n.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", n.Detail, tt.wantDetail)
			}
		})
	}
}

func TestNormalizedDoesNotMutate(t *testing.T) {
	p := &Problem{}
	_ = p.Normalized()
	if p.Status != 0 || p.Type != "" {
		t.Errorf("Normalized mutated the receiver: %+v", p)
	}
}

func TestProblemJSON(t *testing.T) {
	body, err := json.Marshal(New(404, "Item not found").Normalized())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"about:blank","status":404,"title":"Not Found","detail":"Item not found","extensions":null}`
	if string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestValidation(t *testing.T) {
	violations := []FieldViolation{
		{Field: "Email", Tag: "required", Message: "Email is required"},
	}
	p := Validation(violations)

	if p.Status != 422 {
		t.Errorf("Status = %d, want 422", p.Status)
	}
	if p.Normalized().Title != "Unprocessable Entity" {
		t.Errorf("Title = %q, want %q", p.Normalized().Title, "Unprocessable Entity")
	}
	got, ok := p.Extensions.([]FieldViolation)
	if !ok || len(got) != 1 {
		t.Fatalf("Extensions = %#v, want the violation list", p.Extensions)
	}
	if !IsValidation(p) {
		t.Error("IsValidation = false, want true")
	}
	if IsValidation(New(404, "nope")) {
		t.Error("IsValidation(404) = true, want false")
	}
}

func TestErrorString(t *testing.T) {
	got := New(404, "Item not found").Error()
	want := "404 Not Found: Item not found"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup order: %w", New(404, "Item not found"))

	var p *Problem
	if !errors.As(wrapped, &p) {
		t.Fatal("errors.As failed to unwrap Problem")
	}
	if p.Status != 404 {
		t.Errorf("Status = %d, want 404", p.Status)
	}
}

func TestErrUnauthorizedMessage(t *testing.T) {
	if ErrUnauthorized.Error() != "Unauthorized" {
		t.Errorf("message = %q, want %q", ErrUnauthorized.Error(), "Unauthorized")
	}
}
