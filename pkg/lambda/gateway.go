package lambda

import (
	"github.com/sirupsen/logrus"

	"lambdakit/pkg/logctx"
)

// GatewayConfig tunes the pre-composed gateway pipeline. The zero value is
// ready to use.
type GatewayConfig struct {
	// LogLevel is the severity of the per-request record on success.
	// Defaults to debug. Failures are always recorded at error level.
	LogLevel logrus.Level

	// LogMessage is the per-request record's message. Defaults to "request".
	LogMessage string

	// LogExclude drops argument fields from the request record, e.g. "event"
	// when payloads must not be logged.
	LogExclude []string
}

// NewGateway composes the gateway pipeline around typed business logic, in
// this fixed order from the outside in: bind invocation context, log the
// request with status extraction, transform declared application errors
// into problem envelopes, validate the payload into Req, then run fn. The
// success and transformed-error paths both serialize before the logger
// observes them, so the request record carries the final status code.
// Unhandled errors leave the pipeline as errors and fail the invocation
// after being recorded.
func NewGateway[Req any](fn HandlerFunc[Req], cfg GatewayConfig) Handler {
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logrus.DebugLevel
	}
	if cfg.LogMessage == "" {
		cfg.LogMessage = "request"
	}

	return Chain(
		Validated(fn),
		BindInvocation(),
		CallLog(logctx.CallConfig[Envelope]{
			Level:    cfg.LogLevel,
			Message:  cfg.LogMessage,
			Exclude:  cfg.LogExclude,
			Identity: logctx.Identify(fn),
			ResultExtractor: func(env Envelope) logrus.Fields {
				return logrus.Fields{"status_code": env.StatusCode}
			},
		}),
		TransformProblems(),
	)
}
