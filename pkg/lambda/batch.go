package lambda

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"lambdakit/pkg/logctx"
)

// InvalidItemPolicy selects the fate of records whose body fails
// pre-validation.
type InvalidItemPolicy int

const (
	// InvalidIgnore skips the record with a warning naming its identifier;
	// the platform treats it as processed and deletes it.
	InvalidIgnore InvalidItemPolicy = iota

	// InvalidReport returns the record's identifier for redelivery.
	InvalidReport
)

// BatchItem is one unit of batch work: the record identifier, its decoded
// body, and the raw record for attribute access. Handlers only ever see
// items whose body passed validation.
type BatchItem[T any] struct {
	MessageID string
	Body      T
	Record    events.SQSMessage
}

// BatchFunc processes a single batch item. A nil return marks the item
// processed; errors are classified by the batch configuration.
type BatchFunc[T any] func(ctx context.Context, item BatchItem[T]) error

// BatchConfig tunes the fan-out pipeline. The zero value is ready to use.
type BatchConfig struct {
	// MaxWorkers bounds how many items are processed concurrently.
	// Defaults to 4.
	MaxWorkers int

	// OnInvalid selects what happens to records failing pre-validation.
	OnInvalid InvalidItemPolicy

	// Recoverable marks handler errors that count as handled without
	// retry. Nil means every handler error puts the item on the failure
	// list.
	Recoverable func(error) bool

	// RateLimit, when set, paces item processing across all workers.
	RateLimit *rate.Limiter

	// Retry, when set, retries each failing item before classifying the
	// final error.
	Retry *RetryConfig
}

// PanicError reports a panic recovered from an item handler.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("item handler panic: %v", e.Value)
}

// RecoverableAs matches errors carrying kind E anywhere in their wrap
// chain, for use as a BatchConfig.Recoverable predicate.
func RecoverableAs[E error]() func(error) bool {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// NewBatch builds the SQS fan-out pipeline around an item handler. Each
// record is decoded and validated into T, bound to its own ambient log
// context, and dispatched across a bounded worker pool. Item failures are
// isolated: one bad record never fails the batch. The returned function
// always produces a well-formed partial-batch-failure response listing
// only the identifiers the platform should redeliver, and never returns an
// error itself.
//
// Items run to completion once dispatched; there is no mid-batch
// cancellation or internal deadline, and no ordering between items.
func NewBatch[T any](fn BatchFunc[T], cfg BatchConfig) func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}

	inner := func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		results := make([]*events.SQSBatchItemFailure, len(event.Records))

		g := new(errgroup.Group)
		g.SetLimit(cfg.MaxWorkers)
		for i, record := range event.Records {
			i, record := i, record
			g.Go(func() error {
				results[i] = processRecord(ctx, fn, cfg, record)
				return nil
			})
		}
		// Workers never return errors; Wait only joins them.
		_ = g.Wait()

		response := events.SQSEventResponse{
			BatchItemFailures: []events.SQSBatchItemFailure{},
		}
		for _, failure := range results {
			if failure != nil {
				response.BatchItemFailures = append(response.BatchItemFailures, *failure)
			}
		}
		return response, nil
	}

	wrapped := logctx.Wrap(inner, logctx.CallConfig[events.SQSEventResponse]{
		Level:    logrus.DebugLevel,
		Message:  "batch",
		Identity: logctx.Identify(fn),
		ResultExtractor: func(out events.SQSEventResponse) logrus.Fields {
			return logrus.Fields{"failed": len(out.BatchItemFailures)}
		},
	})

	return func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		return wrapped(logctx.Bind(ctx, invocationFields(ctx)), event)
	}
}

func processRecord[T any](ctx context.Context, fn BatchFunc[T], cfg BatchConfig, record events.SQSMessage) *events.SQSBatchItemFailure {
	ctx = logctx.Bind(ctx, logrus.Fields{"message_id": record.MessageId})
	failure := &events.SQSBatchItemFailure{ItemIdentifier: record.MessageId}

	body, err := DecodeValidated[T]([]byte(record.Body))
	if err != nil {
		if cfg.OnInvalid == InvalidReport {
			logctx.Logger(ctx).WithError(err).Warn("record failed validation, reporting for redelivery")
			return failure
		}
		logctx.Logger(ctx).WithError(err).Warn("record failed validation, skipping")
		return nil
	}

	if cfg.RateLimit != nil {
		if err := cfg.RateLimit.Wait(ctx); err != nil {
			logctx.Logger(ctx).WithError(err).Warn("rate limit wait interrupted")
			return failure
		}
	}

	item := BatchItem[T]{MessageID: record.MessageId, Body: body, Record: record}
	err = invokeItem(ctx, fn, cfg, item)
	if err == nil {
		return nil
	}
	if cfg.Recoverable != nil && cfg.Recoverable(err) {
		logctx.Logger(ctx).WithError(err).Info("record handled with recoverable error")
		return nil
	}
	logctx.Logger(ctx).WithError(err).Error("record processing failed")
	return failure
}

func invokeItem[T any](ctx context.Context, fn BatchFunc[T], cfg BatchConfig, item BatchItem[T]) error {
	call := func(ctx context.Context) error {
		return runItem(ctx, fn, item)
	}
	if cfg.Retry != nil {
		return WithRetry(ctx, cfg.Retry, call)
	}
	return call(ctx)
}

// runItem confines a handler panic to its own item.
func runItem[T any](ctx context.Context, fn BatchFunc[T], item BatchItem[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn(ctx, item)
}
