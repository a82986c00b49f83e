package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func proxyRequest(method, path string, pathParams, query map[string]string, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:            method,
		Path:                  path,
		PathParameters:        pathParams,
		QueryStringParameters: query,
		Body:                  body,
		RequestContext:        events.APIGatewayProxyRequestContext{RequestID: "req-test"},
	}
}

func decodeBody(t *testing.T, resp events.APIGatewayProxyResponse) map[string]any {
	t.Helper()
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(resp.Body), &doc); err != nil {
		t.Fatalf("Expected JSON body, got %q: %v", resp.Body, err)
	}
	return doc
}

func TestHandlerCreateGetCancel(t *testing.T) {
	ctx := context.Background()
	body := `{"customer_id":"8f7e6a1c-9d2b-4c3e-8a5f-1b2c3d4e5f6a","items":[{"product_id":"sku-1","quantity":2,"unit_price":4.5}]}`

	resp, err := handler(ctx, proxyRequest("POST", "/api/v1/orders", nil, nil, body))
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, resp.Body)
	}
	orderID, _ := decodeBody(t, resp)["id"].(string)
	if orderID == "" {
		t.Fatal("Expected created order to carry an ID")
	}

	resp, err = handler(ctx, proxyRequest("GET", "/api/v1/orders/"+orderID, map[string]string{"id": orderID}, nil, ""))
	if err != nil {
		t.Fatalf("Expected get to succeed, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if got := decodeBody(t, resp)["status"]; got != "pending" {
		t.Errorf("Expected status pending, got %v", got)
	}

	resp, err = handler(ctx, proxyRequest("POST", "/api/v1/orders/"+orderID+"/cancel", map[string]string{"id": orderID}, nil, `{"reason":"changed my mind"}`))
	if err != nil {
		t.Fatalf("Expected cancel to succeed, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if got := decodeBody(t, resp)["status"]; got != "cancelled" {
		t.Errorf("Expected status cancelled, got %v", got)
	}
}

func TestHandlerUnknownRoute(t *testing.T) {
	resp, err := handler(context.Background(), proxyRequest("DELETE", "/api/v1/orders", nil, nil, ""))
	if err != nil {
		t.Fatalf("Expected unknown routes to respond, got %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if got := resp.Headers["Content-Type"]; got != "application/problem+json" {
		t.Errorf("Expected problem+json Content-Type, got %q", got)
	}
	if got := decodeBody(t, resp)["detail"]; got != "Route not found" {
		t.Errorf("Expected detail %q, got %v", "Route not found", got)
	}
}

func TestHandlerListRejectsBadLimit(t *testing.T) {
	resp, err := handler(context.Background(), proxyRequest("GET", "/api/v1/orders", nil, map[string]string{"limit": "lots"}, ""))
	if err != nil {
		t.Fatalf("Expected list to respond, got %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for a non-numeric limit, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestEventPayloadMergesFields(t *testing.T) {
	event := proxyRequest("POST", "/api/v1/orders/o-1/cancel", map[string]string{"id": "o-1"}, nil, `{"reason":"late"}`)

	doc := map[string]any{}
	if err := json.Unmarshal(eventPayload(event, map[string]any{"order_id": "o-1"}), &doc); err != nil {
		t.Fatalf("Expected payload to be JSON, got %v", err)
	}
	if doc["reason"] != "late" {
		t.Errorf("Expected body field reason to survive, got %v", doc["reason"])
	}
	if doc["order_id"] != "o-1" {
		t.Errorf("Expected route field order_id o-1, got %v", doc["order_id"])
	}
	rc, _ := doc["requestContext"].(map[string]any)
	if rc["requestId"] != "req-test" {
		t.Errorf("Expected requestContext.requestId req-test, got %v", rc["requestId"])
	}
}

func TestEventPayloadPassesMalformedBody(t *testing.T) {
	event := proxyRequest("POST", "/api/v1/orders", nil, nil, `{"broken`)

	got := eventPayload(event, nil)
	if string(got) != `{"broken` {
		t.Errorf("Expected malformed body to pass through, got %q", got)
	}
}

func TestListFields(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]string
		want  map[string]any
	}{
		{"Empty", nil, map[string]any{}},
		{"StatusOnly", map[string]string{"status": "pending"}, map[string]any{"status": "pending"}},
		{"NumericLimit", map[string]string{"limit": "5"}, map[string]any{"limit": 5}},
		{"GarbageLimit", map[string]string{"limit": "lots"}, map[string]any{"limit": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := proxyRequest("GET", "/api/v1/orders", nil, tt.query, "")
			got := listFields(event)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d fields, got %d: %v", len(tt.want), len(got), got)
			}
			for k, want := range tt.want {
				if got[k] != want {
					t.Errorf("Expected %s=%v, got %v", k, want, got[k])
				}
			}
		})
	}
}
