package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicName(t *testing.T) {
	assert.Equal(t, "orders.placed", TopicName("", TopicOrderPlaced))
	assert.Equal(t, "shoppurs.orders.status", TopicName("shoppurs", TopicOrderStatusChanged))
}

func TestNop(t *testing.T) {
	p := Nop()
	assert.NoError(t, p.PublishEvent(context.Background(), TopicOrderPlaced, "1", OrderPlaced{OrderID: 1}))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_FlushesWithoutBatchWait(t *testing.T) {
	p, ok := NewKafkaPublisher([]string{"127.0.0.1:9092"}, "shoppurs").(*kafkaPublisher)
	require.True(t, ok)
	defer p.Close()

	assert.False(t, p.writer.Async)
	assert.Greater(t, p.writer.BatchTimeout, time.Duration(0))
	assert.LessOrEqual(t, p.writer.BatchTimeout, 50*time.Millisecond)
}
