package main

import (
	"context"

	"lambdakit/internal/app"
	"lambdakit/internal/config"
	"lambdakit/pkg/lambda"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
)

var handler func(context.Context, events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error)

func init() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		panic("Failed to initialize container: " + err.Error())
	}

	handler = lambda.NewAuthorizer(container.AuthService.Authorizer())
}

func main() {
	awslambda.Start(handler)
}
