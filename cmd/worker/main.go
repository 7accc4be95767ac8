// Function worker starts the AWS sessions and routes SQS batches to the queue handlers.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/internal/app"
	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/pkg/consumer"
	"github.com/UKHomeOffice/queuerouter/pkg/middleware"
	"github.com/UKHomeOffice/queuerouter/pkg/publisher"
)

var sess *session.Session

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
}

func main() {

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := cfg.Logger()
	if err := cfg.ValidateHandlers(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	ddb := dynamodb.New(sess, awsCfg)
	svc := sqs.New(sess, awsCfg)

	ec, err := app.EmailClient(cfg)
	if err != nil {
		log.Fatalf("failed to create email client: %v", err)
	}

	reg := prometheus.NewRegistry()
	r := app.New(cfg, app.Deps{
		DB:        ddb,
		Publisher: publisher.NewPublisher(svc, cfg.EnvType()),
		Email:     ec,
		Metrics:   middleware.NewMetrics(reg),
		Log:       log,
	})
	c := consumer.New(r, cfg, consumer.WithLogger[config.Env](log))

	// counters are cumulative for the life of the execution environment
	if cfg.BatchItemFailures {
		lambda.Start(func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
			defer middleware.LogSummary(reg, log)
			return c.HandleWithResponse(ctx, event)
		})
		return
	}
	lambda.Start(func(ctx context.Context, event events.SQSEvent) error {
		defer middleware.LogSummary(reg, log)
		return c.Handle(ctx, event)
	})
}
