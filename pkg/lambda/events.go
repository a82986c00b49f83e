package lambda

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"lambdakit/pkg/logctx"
)

// RecordAttributes gives typed access to the system attributes the queue
// sets on every record.
type RecordAttributes struct {
	attrs map[string]string
}

// Attributes wraps an SQS record's attribute map.
func Attributes(record events.SQSMessage) RecordAttributes {
	return RecordAttributes{attrs: record.Attributes}
}

// ApproximateReceiveCount reports how many times the record has been
// delivered, or zero when the attribute is missing or malformed.
func (a RecordAttributes) ApproximateReceiveCount() int {
	n, err := strconv.Atoi(a.attrs["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return n
}

// SenderID is the queue-reported sender of the record.
func (a RecordAttributes) SenderID() string {
	return a.attrs["SenderId"]
}

// SentTimestamp is when the record was sent to the queue.
func (a RecordAttributes) SentTimestamp() time.Time {
	return a.timestamp("SentTimestamp")
}

// ApproximateFirstReceiveTimestamp is when the record was first delivered.
func (a RecordAttributes) ApproximateFirstReceiveTimestamp() time.Time {
	return a.timestamp("ApproximateFirstReceiveTimestamp")
}

func (a RecordAttributes) timestamp(key string) time.Time {
	millis, err := strconv.ParseInt(a.attrs[key], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

// NewEventBridge composes the pipeline for bus-delivered events: decode and
// validate the detail payload into T, bind the event identity into the
// ambient log context, and record the call. These invocations return no
// envelope; an error fails the invocation so the bus retry policy applies.
func NewEventBridge[T any](fn func(ctx context.Context, detail T) error) func(context.Context, events.CloudWatchEvent) error {
	inner := func(ctx context.Context, event events.CloudWatchEvent) (struct{}, error) {
		detail, err := DecodeValidated[T](event.Detail)
		if err != nil {
			return struct{}{}, err
		}
		ctx = logctx.Bind(ctx, logrus.Fields{
			"correlation_id": event.ID,
			"source":         event.Source,
			"detail_type":    event.DetailType,
		})
		return struct{}{}, fn(ctx, detail)
	}

	wrapped := logctx.Wrap(inner, logctx.CallConfig[struct{}]{
		Level:    logrus.DebugLevel,
		Message:  "event",
		Identity: logctx.Identify(fn),
	})

	return func(ctx context.Context, event events.CloudWatchEvent) error {
		_, err := wrapped(logctx.Bind(ctx, invocationFields(ctx)), event)
		return err
	}
}
