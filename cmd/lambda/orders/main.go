package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"lambdakit/internal/app"
	"lambdakit/internal/config"
	"lambdakit/pkg/lambda"
	"lambdakit/pkg/problem"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
)

var (
	createOrder lambda.Handler
	getOrder    lambda.Handler
	listOrders  lambda.Handler
	cancelOrder lambda.Handler
)

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}

	// Order payloads carry customer data, so the raw event stays out of the
	// request records on the write routes.
	createOrder = lambda.NewGateway(container.Orders.Create, lambda.GatewayConfig{LogExclude: []string{"event"}})
	getOrder = lambda.NewGateway(container.Orders.Get, lambda.GatewayConfig{})
	listOrders = lambda.NewGateway(container.Orders.List, lambda.GatewayConfig{})
	cancelOrder = lambda.NewGateway(container.Orders.Cancel, lambda.GatewayConfig{LogExclude: []string{"event"}})
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var (
		route   lambda.Handler
		payload json.RawMessage
	)

	// Route the request
	switch {
	case event.HTTPMethod == "POST" && event.Path == "/api/v1/orders":
		route, payload = createOrder, eventPayload(event, nil)
	case event.HTTPMethod == "GET" && event.Path == "/api/v1/orders":
		route, payload = listOrders, eventPayload(event, listFields(event))
	case event.HTTPMethod == "POST" && event.PathParameters["id"] != "":
		route, payload = cancelOrder, eventPayload(event, map[string]any{"order_id": event.PathParameters["id"]})
	case event.HTTPMethod == "GET" && event.PathParameters["id"] != "":
		route, payload = getOrder, eventPayload(event, map[string]any{"order_id": event.PathParameters["id"]})
	default:
		return respondProblem(http.StatusNotFound, "Route not found"), nil
	}

	env, err := route(ctx, payload)
	if err != nil {
		return respondProblem(http.StatusInternalServerError, "Internal server error"), nil
	}
	return respond(env), nil
}

// eventPayload merges the request body with route fields and the gateway
// request ID into the flat payload document the pipeline expects. A body that
// is not a JSON object flows through untouched so decoding reports it.
func eventPayload(event events.APIGatewayProxyRequest, fields map[string]any) json.RawMessage {
	doc := map[string]any{}
	if event.Body != "" {
		if err := json.Unmarshal([]byte(event.Body), &doc); err != nil {
			return json.RawMessage(event.Body)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	if id := event.RequestContext.RequestID; id != "" {
		doc["requestContext"] = map[string]any{"requestId": id}
	}
	payload, _ := json.Marshal(doc)
	return payload
}

// listFields lifts the list route's query parameters into payload fields. A
// non-numeric limit flows through as a string so decoding rejects it.
func listFields(event events.APIGatewayProxyRequest) map[string]any {
	fields := map[string]any{}
	if status := event.QueryStringParameters["status"]; status != "" {
		fields["status"] = status
	}
	if limit := event.QueryStringParameters["limit"]; limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			fields["limit"] = n
		} else {
			fields["limit"] = limit
		}
	}
	return fields
}

func respond(env lambda.Envelope) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode:      env.StatusCode,
		Headers:         env.Headers,
		IsBase64Encoded: env.IsBase64Encoded,
	}
	if env.Body != nil {
		resp.Body = *env.Body
	}
	return resp
}

func respondProblem(status int, detail string) events.APIGatewayProxyResponse {
	env, err := lambda.Serialize(lambda.ProblemResponse(problem.New(status, detail)))
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}
	}
	return respond(env)
}

func main() {
	awslambda.Start(handler)
}
