package lambda

import (
	"context"
	"encoding/json"
)

// Response is the typed result returned by business logic before
// serialization. Body carries one of three mutually exclusive kinds:
// nil (no content), []byte (binary), or any JSON-marshalable value
// (structured). A zero StatusCode means "default for the body kind":
// 200 when a body is present, 204 when it is absent.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       any
}

// Envelope is the wire-format wrapper returned to the invoking gateway.
// Body is null when the response carries no content.
type Envelope struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            *string           `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// Handler is the uniform call shape the pipeline middleware wrap: a raw
// invocation payload in, a serialized envelope out.
type Handler func(ctx context.Context, event json.RawMessage) (Envelope, error)

// Middleware decorates a Handler with additional behavior.
type Middleware func(Handler) Handler

// HandlerFunc is the shape business logic takes inside a gateway pipeline:
// a validated request in, a typed response out. Returning a *problem.Problem
// error produces a problem+json envelope; any other error fails the
// invocation.
type HandlerFunc[Req any] func(ctx context.Context, req Req) (*Response, error)
