// Command localrun feeds an SQS event file through the worker's router, e.g. against LocalStack.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/internal/app"
	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/pkg/consumer"
	"github.com/UKHomeOffice/queuerouter/pkg/middleware"
	"github.com/UKHomeOffice/queuerouter/pkg/publisher"
)

func main() {

	eventFile := flag.String("event", "test_event.json", "path to an SQS event JSON file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration")
	endpoint := flag.String("endpoint", "", "AWS endpoint override, e.g. http://localhost:4566")
	partial := flag.Bool("partial", false, "report batch item failures instead of failing the batch")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Fatalf("failed to load %v: %v", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := cfg.Logger()
	if err := cfg.ValidateHandlers(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	event, err := readEvent(*eventFile)
	if err != nil {
		log.Fatal(err)
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if *endpoint != "" {
		awsCfg.Endpoint = aws.String(*endpoint)
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	ec, err := app.EmailClient(cfg)
	if err != nil {
		log.Fatalf("failed to create email client: %v", err)
	}

	reg := prometheus.NewRegistry()
	r := app.New(cfg, app.Deps{
		DB:        dynamodb.New(sess, awsCfg),
		Publisher: publisher.NewPublisher(sqs.New(sess, awsCfg), cfg.EnvType()),
		Email:     ec,
		Metrics:   middleware.NewMetrics(reg),
		Log:       log,
	})
	c := consumer.New(r, cfg, consumer.WithLogger[config.Env](log))

	ctx := context.Background()
	if *partial {
		resp, err := c.HandleWithResponse(ctx, event)
		if err != nil {
			log.Fatal(err)
		}
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
	} else if err := c.Handle(ctx, event); err != nil {
		fmt.Printf("batch failed:\n%v\n", err)
	} else {
		fmt.Println("batch succeeded")
	}

	middleware.LogSummary(reg, log)
}

func readEvent(path string) (events.SQSEvent, error) {

	var event events.SQSEvent
	b, err := os.ReadFile(path)
	if err != nil {
		return event, fmt.Errorf("failed to read event file: %v", err)
	}
	if err := json.Unmarshal(b, &event); err != nil {
		return event, fmt.Errorf("failed to decode event file: %v", err)
	}
	return event, nil
}
