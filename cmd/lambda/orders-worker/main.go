package main

import (
	"context"
	"errors"
	"net/http"

	"lambdakit/internal/app"
	"lambdakit/internal/config"
	"lambdakit/pkg/lambda"
	"lambdakit/pkg/problem"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
)

type batchHandler = func(context.Context, events.SQSEvent) (events.SQSEventResponse, error)

// pipeline builds on first use and is reused across invocations in the same
// sandbox. A failed build is retried on the next invocation.
var pipeline = lambda.NewWarmCache(func() (batchHandler, error) {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		return nil, err
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		return nil, err
	}

	batchCfg := container.BatchConfig()
	batchCfg.Recoverable = orderGone

	return lambda.NewBatch(container.Orders.Ship, batchCfg), nil
})

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	h, err := pipeline.Get()
	if err != nil {
		return events.SQSEventResponse{}, err
	}
	return h(ctx, event)
}

// orderGone reports whether the shipment failed because its order no longer
// exists. Such messages are dropped instead of redelivered; conflicts keep
// going back to the queue until the order reaches a shippable state or the
// redrive policy gives up.
func orderGone(err error) bool {
	var p *problem.Problem
	return errors.As(err, &p) && p.Normalized().Status == http.StatusNotFound
}

func main() {
	awslambda.Start(handler)
}
