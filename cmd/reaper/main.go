package main

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobilist/batch-checkout/internal/checkout"
	"github.com/jobilist/batch-checkout/internal/config"
	"github.com/jobilist/batch-checkout/internal/platform"
)

// The reaper expires checkouts whose gateway window lapsed without a payment
// callback. An expired checkout is equivalent to a cancelled one: the buyer
// resubmits the form for a fresh order.
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
	store := checkout.NewStore(clients.DynamoDB, conf.CheckoutsTable)

	c := cron.New()
	_, err = c.AddFunc(conf.ReapSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := store.ExpireStale(ctx)
		if err != nil {
			sugar.Errorw("expire sweep failed", "err", err)
			return
		}
		if n > 0 {
			sugar.Infow("expired stale checkouts", "count", n)
		}
	})
	if err != nil {
		sugar.Fatalw("invalid reap schedule", "schedule", conf.ReapSchedule, "err", err)
	}

	sugar.Infow("reaper started", "schedule", conf.ReapSchedule)
	c.Run()
}
