package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

func sampleEvent() models.CommentEvent {
	return models.CommentEvent{
		Type:       models.EventCommentCreated,
		ArticleID:  42,
		CommentID:  7,
		Content:    "hello",
		AuthorName: "Ana",
		Timestamp:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNew_Drivers(t *testing.T) {
	pub, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, pub)
	assert.NoError(t, pub.Close())

	_, err = New(context.Background(), Config{Driver: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported event broker")

	_, err = New(context.Background(), Config{Driver: DriverKafka})
	assert.ErrorContains(t, err, "at least one broker")

	_, err = New(context.Background(), Config{Driver: DriverRabbitMQ})
	assert.ErrorContains(t, err, "requires a url")
}

func TestKafkaMessage(t *testing.T) {
	event := sampleEvent()

	msg, err := kafkaMessage(event)
	require.NoError(t, err)

	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, event.Timestamp, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, models.EventCommentCreated, string(msg.Headers[0].Value))

	var decoded models.CommentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(7), decoded.CommentID)
	assert.Equal(t, "hello", decoded.Content)
}

func TestRabbitMessage(t *testing.T) {
	event := sampleEvent()
	event.Type = models.EventCommentDeleted
	event.Removed = []int64{7, 8}

	msg, err := rabbitMessage(event)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, models.EventCommentDeleted, msg.Type)
	assert.Equal(t, "42", msg.Headers["article_id"])
	assert.Equal(t, "comments.comment_deleted", routingKey(event))

	var decoded models.CommentEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, []int64{7, 8}, decoded.Removed)
}
