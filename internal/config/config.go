// Package config loads service configuration, environment-first with an
// optional .env file for local development.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr               string
	RunLocal           bool
	AWSRegion          string
	CheckoutsTable     string
	PlacementsQueueURL string
	MetricsNamespace   string
	RazorpayKeyID      string
	RazorpayKeySecret  string
	CloudinaryURL      string
	UploadFolder       string
	// GatewayWindow bounds how long a created checkout may wait for the
	// gateway callback before the reaper expires it.
	GatewayWindow time.Duration
	ReapSchedule  string
	LocalSQSBody  string
}

// Load reads configuration from the environment. Environment variables win
// over the .env file; the file is optional.
func Load() *Config {
	viper.SetDefault("ADDR", ":8080")
	viper.SetDefault("RUN_LOCAL", false)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("CHECKOUTS_TABLE", "checkouts")
	viper.SetDefault("PLACEMENTS_QUEUE_URL", "")
	viper.SetDefault("METRICS_NAMESPACE", "BatchCheckout")
	viper.SetDefault("RAZORPAY_KEY_ID", "")
	viper.SetDefault("RAZORPAY_KEY_SECRET", "")
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("UPLOAD_FOLDER", "logos")
	viper.SetDefault("GATEWAY_WINDOW", "30m")
	viper.SetDefault("REAP_SCHEDULE", "@every 10m")
	viper.SetDefault("LOCAL_SQS_BODY", "")

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // missing file is fine

	return &Config{
		Addr:               viper.GetString("ADDR"),
		RunLocal:           viper.GetBool("RUN_LOCAL"),
		AWSRegion:          viper.GetString("AWS_REGION"),
		CheckoutsTable:     viper.GetString("CHECKOUTS_TABLE"),
		PlacementsQueueURL: viper.GetString("PLACEMENTS_QUEUE_URL"),
		MetricsNamespace:   viper.GetString("METRICS_NAMESPACE"),
		RazorpayKeyID:      viper.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  viper.GetString("RAZORPAY_KEY_SECRET"),
		CloudinaryURL:      viper.GetString("CLOUDINARY_URL"),
		UploadFolder:       viper.GetString("UPLOAD_FOLDER"),
		GatewayWindow:      viper.GetDuration("GATEWAY_WINDOW"),
		ReapSchedule:       viper.GetString("REAP_SCHEDULE"),
		LocalSQSBody:       viper.GetString("LOCAL_SQS_BODY"),
	}
}
