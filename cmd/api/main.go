package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobilist/batch-checkout/internal/checkout"
	"github.com/jobilist/batch-checkout/internal/config"
	"github.com/jobilist/batch-checkout/internal/gateway"
	"github.com/jobilist/batch-checkout/internal/handlers"
	"github.com/jobilist/batch-checkout/internal/platform"
	"github.com/jobilist/batch-checkout/internal/upload"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	conf := config.Load()

	clients, err := platform.NewClients(context.Background(), conf.AWSRegion)
	if err != nil {
		sugar.Fatalw("failed to init aws clients", "err", err)
	}

	uploader, err := upload.NewCloudinary(conf.CloudinaryURL, conf.UploadFolder)
	if err != nil {
		sugar.Fatalw("failed to init uploader", "err", err)
	}

	rzp := gateway.NewRazorpayClient(conf.RazorpayKeyID, conf.RazorpayKeySecret)

	cfg := handlers.HandlerConfig{
		Uploader:      uploader,
		Gateway:       rzp,
		Signatures:    rzp,
		Checkouts:     checkout.NewStore(clients.DynamoDB, conf.CheckoutsTable),
		Publisher:     platform.NewPlacementPublisher(clients.SQS, conf.PlacementsQueueURL),
		Metrics:       platform.NewMetrics(clients.CloudWatch, conf.MetricsNamespace),
		GatewayKey:    conf.RazorpayKeyID,
		GatewayWindow: conf.GatewayWindow,
		Log:           sugar,
	}

	r := setupRouter(cfg)

	// if RUN_LOCAL is set, run a local HTTP server for development.
	if conf.RunLocal {
		sugar.Infow("running local server", "addr", conf.Addr)
		if err := r.Run(conf.Addr); err != nil {
			sugar.Fatalw("failed to run local server", "err", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
