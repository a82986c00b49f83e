package lambda

import (
	"context"
	"encoding/json"
	"errors"

	"lambdakit/pkg/problem"
)

// TransformError returns middleware that catches one declared error kind E
// and hands it to convert for a replacement response. Matching follows the
// wrap chain (errors.As), so a transformer declared for a broad kind also
// catches its more specific values while anything undeclared propagates
// untouched. The converter may itself fail, in which case its error
// propagates instead.
func TransformError[E error](convert func(ctx context.Context, err E) (*Response, error)) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, event json.RawMessage) (Envelope, error) {
			env, err := next(ctx, event)
			if err == nil {
				return env, nil
			}

			var target E
			if !errors.As(err, &target) {
				return Envelope{}, err
			}

			resp, err := convert(ctx, target)
			if err != nil {
				return Envelope{}, err
			}
			return Serialize(resp)
		}
	}
}

// ProblemResponse maps a declared application error to its wire response:
// the normalized problem document as a problem+json body with the problem's
// status.
func ProblemResponse(p *problem.Problem) *Response {
	n := p.Normalized()
	return &Response{
		StatusCode: n.Status,
		Headers:    map[string]string{"Content-Type": ContentTypeProblem},
		Body:       n,
	}
}

// TransformProblems is the gateway default: declared application errors
// become problem+json envelopes instead of failed invocations.
func TransformProblems() Middleware {
	return TransformError(func(_ context.Context, p *problem.Problem) (*Response, error) {
		return ProblemResponse(p), nil
	})
}
