package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jobilist/batch-checkout/internal/config"
	"github.com/jobilist/batch-checkout/internal/platform"
)

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

	p := NewProcessor(clients, conf.CheckoutsTable, sugar)

	// If RUN_LOCAL is set, simulate a single SQS event for local testing.
	if conf.RunLocal {
		body := conf.LocalSQSBody
		if body == "" {
			body = `{"order_id":"local-order-1","payment_id":"local-pay-1","receipt_id":"local-receipt-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: body},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			sugar.Fatalw("local handler error", "err", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
