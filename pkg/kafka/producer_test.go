package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishClientEvent(t *testing.T) {
	writer := &recordingWriter{}
	producer := NewProducerWithWriter(writer, "client-events", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := producer.PublishClientEvent(context.Background(), &ClientEvent{
		EventType:     "client.merged",
		TenantID:      "broker-1",
		ClientID:      "a",
		SourceClients: []string{"b"},
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "client-events", msg.Topic)
	assert.Equal(t, []byte("a"), msg.Key)
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte("client.merged")})

	var event ClientEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, []string{"b"}, event.SourceClients)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublishClientEvent_WriterError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("leader not available")}
	producer := NewProducerWithWriter(writer, "client-events", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := producer.PublishClientEvent(context.Background(), &ClientEvent{EventType: "client.merged", ClientID: "a"})
	assert.EqualError(t, err, "leader not available")
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
	assert.Equal(t, kafka.Snappy, compressionCodec(""))
}
