package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/tidwall/gjson"

	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/internal/email"
	"github.com/UKHomeOffice/queuerouter/pkg/middleware"
	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

type mockDynamoDB struct {
	dynamodbiface.DynamoDBAPI
	users []string
}

func (md *mockDynamoDB) PutItemWithContext(_ aws.Context, input *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	md.users = append(md.users, aws.StringValue(input.Item["userID"].S))
	return new(dynamodb.PutItemOutput), nil
}

type mockPublisher struct {
	sent []email.Notification
}

func (mp *mockPublisher) Publish(_ context.Context, logical string, body interface{}) (string, error) {
	n, ok := body.(email.Notification)
	if logical != email.Queue || !ok {
		return "", errors.New("unexpected publish")
	}
	mp.sent = append(mp.sent, n)
	return "mid", nil
}

func newBatch(queue string, bodies ...string) router.Batch {
	b := router.Batch{Queue: queue}
	for i, body := range bodies {
		b.Messages = append(b.Messages, router.NewMessage(string(rune('a'+i)), time.Time{}, 1, body, nil))
	}
	return b
}

func TestNewRegistersQueues(t *testing.T) {
	l, _ := logtest.NewNullLogger()
	r := New(config.Env{Type: "dev"}, Deps{Log: l})

	if diff := cmp.Diff([]string{"send-email", "user-created"}, r.Queues()); diff != "" {
		t.Errorf("queues mismatch (-want +got):\n%s", diff)
	}
}

func TestUserCreated(t *testing.T) {

	cfg := config.Env{Type: "prod", UsersTable: "users-prod"}
	md := &mockDynamoDB{}
	mp := &mockPublisher{}
	reg := prometheus.NewRegistry()
	l, _ := logtest.NewNullLogger()

	r := New(cfg, Deps{DB: md, Publisher: mp, Metrics: middleware.NewMetrics(reg), Log: l})

	sns := `{"Type":"Notification","MessageId":"n-1","TopicArn":"arn:aws:sns:eu-west-2:123456789012:users",` +
		`"Message":"{\"userId\":\"u-3\",\"email\":\"three@example.com\",\"timestamp\":1700000002}"}`
	b := newBatch("user-created-prod",
		`{"userId":"u-1","email":"one@example.com","timestamp":1700000000}`,
		`{"userId":"u-2","email":"","timestamp":1700000001}`,
		sns,
		`not json`,
	)

	err := r.Dispatch(context.Background(), b, cfg)
	want := "Message 2: missing email for user u-2\nMessage 4: failed to decode message body"
	if err == nil || !strings.HasPrefix(err.Error(), want) {
		t.Fatalf("expected error starting %q, got: %v", want, err)
	}

	if diff := cmp.Diff([]string{"u-1", "u-3"}, md.users); diff != "" {
		t.Errorf("stored users mismatch (-want +got):\n%s", diff)
	}
	if len(mp.sent) != 2 || mp.sent[1].To != "three@example.com" {
		t.Errorf("unexpected notifications: %+v", mp.sent)
	}

	expected := `
# HELP queuerouter_messages_total Messages handled, by logical queue and result.
# TYPE queuerouter_messages_total counter
queuerouter_messages_total{queue="user-created",result="failure"} 2
queuerouter_messages_total{queue="user-created",result="success"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "queuerouter_messages_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestSendEmail(t *testing.T) {

	var recipients []string
	testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		recipients = append(recipients, gjson.GetBytes(body, "to").Str)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer testSrv.Close()

	cfg := config.Env{Type: "dev", EmailAPIURL: testSrv.URL + "/send", EmailAPIKey: "key"}
	c, err := EmailClient(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, _ := logtest.NewNullLogger()
	r := New(cfg, Deps{Email: c, Log: l})

	b := newBatch("send-email-dev",
		`{"to":"one@example.com","subject":"Welcome","body":"Hi"}`,
		`{"subject":"no recipient"}`,
	)

	err = r.Dispatch(context.Background(), b, cfg)
	if err == nil || err.Error() != "Message 2: notification has no recipient" {
		t.Errorf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"one@example.com"}, recipients); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownQueue(t *testing.T) {
	cfg := config.Env{Type: "dev"}
	l, _ := logtest.NewNullLogger()
	r := New(cfg, Deps{Log: l})

	err := r.Dispatch(context.Background(), newBatch("orders-dev", "{}"), cfg)
	var nh *router.NoHandlerError
	if !errors.As(err, &nh) || nh.Queue != "orders" {
		t.Errorf("expected no handler error for orders, got: %v", err)
	}
}
