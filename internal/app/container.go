package app

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lambdakit/internal/auth"
	"lambdakit/internal/config"
	"lambdakit/internal/orders"
	"lambdakit/pkg/lambda"
	"lambdakit/pkg/logctx"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logrus.Logger
	AuthService  *auth.Service
	OrderService *orders.Service
	Orders       *orders.Handlers
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger := logrus.StandardLogger()
	if config.IsServerlessMode() {
		logctx.ConfigureLambda(logger)
	} else {
		logctx.ConfigureLocal(logger)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	orderService := orders.NewService()

	container := &Container{
		Config: cfg,
		Logger: logger,
		AuthService: auth.NewService(&auth.Config{
			JWTSecret:     cfg.JWT.Secret,
			TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
			Issuer:        cfg.JWT.Issuer,
		}),
		OrderService: orderService,
		Orders:       orders.NewHandlers(orderService),
	}

	return container, nil
}

// BatchConfig assembles the queue consumer settings from configuration
func (c *Container) BatchConfig() lambda.BatchConfig {
	batch := lambda.BatchConfig{
		MaxWorkers: c.Config.Batch.MaxWorkers,
	}

	if c.Config.Batch.RatePerSecond > 0 {
		batch.RateLimit = rate.NewLimiter(rate.Limit(c.Config.Batch.RatePerSecond), 1)
	}
	if c.Config.Batch.MaxAttempts > 1 {
		retry := lambda.DefaultRetryConfig()
		retry.MaxAttempts = c.Config.Batch.MaxAttempts
		batch.Retry = retry
	}

	return batch
}
