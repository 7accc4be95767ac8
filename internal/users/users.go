// Package users stores newly created users and queues their welcome email.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/queuerouter/internal/config"
	"github.com/UKHomeOffice/queuerouter/internal/email"
	"github.com/UKHomeOffice/queuerouter/pkg/router"
)

// Queue is the logical name of the queue new users arrive on
const Queue = "user-created"

// UserCreated is the user-created message body
type UserCreated struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"`
}

// record is the users table item
type record struct {
	UserID    string `dynamodbav:"userID"`
	Email     string `dynamodbav:"email"`
	CreatedAt string `dynamodbav:"createdAt"`
	MessageID string `dynamodbav:"messageID"`
}

// DBPutter is an abstraction (helpful for testing)
type DBPutter interface {
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
}

// Publisher sends a message to a logical queue
type Publisher interface {
	Publish(ctx context.Context, logical string, body interface{}) (string, error)
}

// Store is the user-created handler
type Store struct {
	ddb DBPutter
	pub Publisher
	log logrus.FieldLogger
}

// NewStore returns a new Store
func NewStore(d DBPutter, p Publisher, l logrus.FieldLogger) *Store {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Store{ddb: d, pub: p, log: l}
}

// Handle writes the user to the users table and queues a welcome email.
func (s *Store) Handle(ctx context.Context, c router.Context[UserCreated, config.Env]) error {

	u := c.Message.Body
	if u.UserID == "" {
		return fmt.Errorf("missing userId")
	}
	if u.Email == "" {
		return fmt.Errorf("missing email for user %v", u.UserID)
	}

	item, err := dynamodbattribute.MarshalMap(record{
		UserID:    u.UserID,
		Email:     u.Email,
		CreatedAt: time.Unix(u.Timestamp, 0).UTC().Format(time.RFC3339),
		MessageID: c.Message.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal db record: %s", err)
	}

	// a redelivered message must not create a second record
	_, err = s.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		Item:                item,
		TableName:           aws.String(c.Env.UsersTable),
		ConditionExpression: aws.String("attribute_not_exists(userID) OR messageID = :mid"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":mid": {S: aws.String(c.Message.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put to db: %v", err)
	}
	s.log.WithField("user_id", u.UserID).Info("Record created")

	id, err := s.pub.Publish(ctx, email.Queue, Welcome(u))
	if err != nil {
		return err
	}
	s.log.WithField("user_id", u.UserID).Infof("Welcome email queued as %v", id)

	return nil
}

// Welcome returns the welcome notification for u
func Welcome(u UserCreated) email.Notification {
	return email.Notification{
		To:      u.Email,
		Subject: "Welcome",
		Body:    fmt.Sprintf("Your account %v has been created.", u.UserID),
	}
}
