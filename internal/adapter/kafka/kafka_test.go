package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-map-service/internal/domain"
	"github.com/couchcryptid/flight-map-service/internal/playback"
	"github.com/couchcryptid/flight-map-service/internal/session"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	unresolved := domain.CodeSet{}
	unresolved.Add("ZZZ")
	event := session.Event{
		Type:       session.EventUploadComplete,
		SessionID:  "sess-1",
		OccurredAt: now,
		Upload: &session.UploadSummary{
			SessionID:          "sess-1",
			Filename:           "flights.csv",
			TotalRows:          3,
			UnresolvedAirports: unresolved,
		},
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("sess-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"upload_complete"`)
	assert.Contains(t, string(msg.Value), `"unresolved_airports":["ZZZ"]`)
	assert.NotContains(t, string(msg.Value), `"playback"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("upload_complete"), msg.Headers[0].Value)
	assert.Equal(t, "occurred_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, logger: discardLogger()}

	status := playback.Status{State: playback.StatePlaying, FlightsTotal: 4}
	err := p.Publish(context.Background(), session.Event{
		Type:      session.EventPlaybackStart,
		SessionID: "sess-2",
		Playback:  &status,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("sess-2"), w.msgs[0].Key)
	assert.Contains(t, string(w.msgs[0].Value), `"flights_total":4`)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w, logger: discardLogger()}

	err := p.Publish(context.Background(), session.Event{Type: session.EventFilterChanged, SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter_changed")
	assert.Contains(t, err.Error(), "leader not available")
}
