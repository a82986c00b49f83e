package lambda

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lambdakit/pkg/logctx"
)

// Chain applies middleware to h in declaration order: the first element
// becomes the outermost wrapper. Pipelines are built from an explicit list
// here instead of nested decoration at every call site.
func Chain(h Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// requestContextProbe reads the slice of a gateway proxy event the context
// binder cares about.
type requestContextProbe struct {
	RequestContext struct {
		RequestID string `json:"requestId"`
	} `json:"requestContext"`
}

// BindInvocation returns middleware that binds the invocation identity and a
// correlation ID into the ambient log context for everything downstream.
// The correlation ID comes from the gateway request context when present,
// otherwise a fresh UUID.
func BindInvocation() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, event json.RawMessage) (Envelope, error) {
			fields := invocationFields(ctx)
			fields["correlation_id"] = correlationID(event)
			return next(logctx.Bind(ctx, fields), event)
		}
	}
}

// invocationFields snapshots the platform invocation identity from ctx.
// Outside a Lambda environment the set is empty.
func invocationFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields["lambda_context"] = logrus.Fields{
			"name":        lambdacontext.FunctionName,
			"memory_size": lambdacontext.MemoryLimitInMB,
			"arn":         lc.InvokedFunctionArn,
			"request_id":  lc.AwsRequestID,
		}
	}
	return fields
}

func correlationID(event json.RawMessage) string {
	var probe requestContextProbe
	if err := json.Unmarshal(event, &probe); err == nil && probe.RequestContext.RequestID != "" {
		return probe.RequestContext.RequestID
	}
	return uuid.New().String()
}

// CallLog returns middleware that emits one structured record per
// invocation via the call logger.
func CallLog(cfg logctx.CallConfig[Envelope]) Middleware {
	return func(next Handler) Handler {
		return Handler(logctx.Wrap(logctx.Func[json.RawMessage, Envelope](next), cfg))
	}
}

// NewLogged wraps an already-composed Handler with context binding and call
// logging only, for functions that do their own decoding and serialization.
func NewLogged(h Handler) Handler {
	return Chain(h,
		BindInvocation(),
		CallLog(logctx.CallConfig[Envelope]{
			Level:    logrus.DebugLevel,
			Message:  "request",
			Identity: logctx.Identify(h),
		}),
	)
}
