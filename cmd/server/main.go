package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lambdakit/internal/app"
	"lambdakit/internal/auth"
	"lambdakit/internal/config"
	"lambdakit/internal/middleware"
	"lambdakit/pkg/lambda"
	"lambdakit/pkg/problem"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.WithLogger(container.Logger))
	router.Use(middleware.Correlation())
	router.Use(middleware.RequestLog())

	// The same composed pipelines the deployed entrypoints run.
	createOrder := lambda.NewGateway(container.Orders.Create, lambda.GatewayConfig{LogExclude: []string{"event"}})
	getOrder := lambda.NewGateway(container.Orders.Get, lambda.GatewayConfig{})
	listOrders := lambda.NewGateway(container.Orders.List, lambda.GatewayConfig{})
	cancelOrder := lambda.NewGateway(container.Orders.Cancel, lambda.GatewayConfig{LogExclude: []string{"event"}})
	shipOrders := lambda.NewBatch(container.Orders.Ship, container.BatchConfig())
	confirmOrders := lambda.NewEventBridge(container.Orders.Confirm)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"mode":      config.GetDeploymentMode(),
			"orders":    container.OrderService.Count(),
		})
	})

	// API routes
	v1 := router.Group("/api/v1")

	orders := v1.Group("/orders")
	orders.Use(middleware.Authenticated(container.AuthService))
	{
		orders.POST("", invoke(createOrder, nil))
		orders.GET("", invoke(listOrders, listFields))
		orders.GET("/:id", invoke(getOrder, idField))
		orders.POST("/:id/cancel", middleware.RequireRole(auth.RoleOperator, auth.RoleAdmin), invoke(cancelOrder, idField))
	}

	if cfg.Environment != "production" {
		// Development conveniences: mint bearer tokens and feed the queue
		// and bus pipelines without real triggers.
		v1.POST("/auth/token", mintToken(container.AuthService))

		dev := router.Group("/dev")
		dev.POST("/queue/shipments", enqueueShipment(shipOrders))
		dev.POST("/bus/payment-captured", publishPayment(confirmOrders))
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// invoke adapts a composed pipeline handler to gin: assemble the payload the
// gateway would deliver, run the pipeline, and write the envelope back.
func invoke(h lambda.Handler, fields func(*gin.Context) map[string]any) gin.HandlerFunc {
	return func(c *gin.Context) {
		var extra map[string]any
		if fields != nil {
			extra = fields(c)
		}

		env, err := h(c.Request.Context(), requestPayload(c, extra))
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusInternalServerError, "Internal server error"))
			return
		}
		writeEnvelope(c, env)
	}
}

// requestPayload merges the request body with route fields and the request's
// correlation ID, mirroring what the deployed gateway delivers. A body that
// is not a JSON object flows through untouched so decoding reports it.
func requestPayload(c *gin.Context, fields map[string]any) json.RawMessage {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
	}

	doc := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			return json.RawMessage(body)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	if id := c.GetString(middleware.CorrelationIDKey); id != "" {
		doc["requestContext"] = map[string]any{"requestId": id}
	}
	payload, _ := json.Marshal(doc)
	return payload
}

func idField(c *gin.Context) map[string]any {
	return map[string]any{"order_id": c.Param("id")}
}

// listFields lifts the list route's query parameters into payload fields. A
// non-numeric limit flows through as a string so decoding rejects it.
func listFields(c *gin.Context) map[string]any {
	fields := map[string]any{}
	if status := c.Query("status"); status != "" {
		fields["status"] = status
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			fields["limit"] = n
		} else {
			fields["limit"] = limit
		}
	}
	return fields
}

// writeEnvelope maps a pipeline envelope onto the HTTP response, decoding
// base64 bodies back into bytes.
func writeEnvelope(c *gin.Context, env lambda.Envelope) {
	for k, v := range env.Headers {
		c.Header(k, v)
	}
	if env.Body == nil {
		c.Status(env.StatusCode)
		return
	}

	body := []byte(*env.Body)
	if env.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(*env.Body)
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusInternalServerError, "Malformed binary response"))
			return
		}
		body = decoded
	}
	c.Data(env.StatusCode, "", body)
}

type tokenRequest struct {
	UserID   string   `json:"user_id" binding:"required"`
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Roles    []string `json:"roles"`
}

// mintToken issues bearer tokens for local testing. Deployed stacks never
// expose this; authentication happens at the gateway authorizer.
func mintToken(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusBadRequest, err.Error()))
			return
		}

		token, err := service.GenerateToken(req.UserID, req.Username, req.Email, req.Roles)
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusInternalServerError, "Failed to generate token"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// enqueueShipment wraps the request body in a single-record queue event and
// runs it through the batch pipeline.
func enqueueShipment(batch func(context.Context, events.SQSEvent) (events.SQSEventResponse, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusBadRequest, "Failed to read request body"))
			return
		}

		event := events.SQSEvent{Records: []events.SQSMessage{{
			MessageId: uuid.New().String(),
			Body:      string(body),
		}}}
		resp, err := batch(c.Request.Context(), event)
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusInternalServerError, "Batch invocation failed"))
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// publishPayment wraps the request body as a bus event detail and runs it
// through the event pipeline.
func publishPayment(deliver func(context.Context, events.CloudWatchEvent) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			middleware.AbortProblem(c, problem.New(http.StatusBadRequest, "Failed to read request body"))
			return
		}

		event := events.CloudWatchEvent{
			ID:         uuid.New().String(),
			Source:     "lambdakit.payments",
			DetailType: "payment.captured",
			Detail:     json.RawMessage(body),
		}
		if err := deliver(c.Request.Context(), event); err != nil {
			var p *problem.Problem
			if errors.As(err, &p) {
				middleware.AbortProblem(c, p)
				return
			}
			middleware.AbortProblem(c, problem.New(http.StatusInternalServerError, "Event delivery failed"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
