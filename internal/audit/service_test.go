package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AppendValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Append(ctx, Event{UserID: "u"}), ErrInvalidEvent)
	assert.ErrorIs(t, svc.Append(ctx, Event{Type: EventLogout}), ErrInvalidEvent)
	assert.ErrorIs(t, svc.Append(ctx, Event{Type: EventLoginFailed}), ErrInvalidEvent)
	assert.NoError(t, svc.Append(ctx, Event{Type: EventLoginFailed, Username: "ghost"}))
}

func TestService_StampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	require.NoError(t, svc.Append(context.Background(), Event{Type: EventLoginSucceeded, UserID: "u-1"}))

	evs := repo.Events()
	require.Len(t, evs, 1)
	assert.NotEmpty(t, evs[0].ID)
	assert.Equal(t, fixed, evs[0].CreatedAt)

	// Returned slice is a copy.
	evs[0].UserID = "mutated"
	assert.Equal(t, "u-1", repo.Events()[0].UserID)
}

func TestService_RecordSwallowsErrors(t *testing.T) {
	var nilSvc *Service
	nilSvc.Record(context.Background(), Event{Type: EventLogout, UserID: "u"})

	svc := NewService(failingRepo{})
	svc.Record(context.Background(), Event{Type: EventLogout, UserID: "u"})
}

type failingRepo struct{}

func (failingRepo) Append(context.Context, Event) error { return errors.New("down") }

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafkaRepo_PublishesJSONKeyedByUser(t *testing.T) {
	w := &fakeWriter{}
	repo := NewKafkaRepo(w)

	e := Event{ID: "e-1", Type: EventLogout, UserID: "u-7", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Append(context.Background(), e))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u-7", string(w.msgs[0].Key))
	assert.Equal(t, "logout", string(w.msgs[0].Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Type, got.Type)

	require.NoError(t, repo.Close())
	assert.True(t, w.closed)
}

func TestKafkaRepo_FailedLoginKeyedByUsername(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewKafkaRepo(w).Append(context.Background(), Event{Type: EventLoginFailed, Username: "ghost"}))
	assert.Equal(t, "ghost", string(w.msgs[0].Key))
}

func TestKafkaRepo_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	err := NewKafkaRepo(&fakeWriter{err: boom}).Append(context.Background(), Event{Type: EventLogout, UserID: "u"})
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "auth.audit")
	assert.Equal(t, "auth.audit", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestLogRepo(t *testing.T) {
	var buf bytes.Buffer
	repo := NewLogRepo(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, repo.Append(context.Background(), Event{ID: "e", Type: EventRegistered, UserID: "u-1"}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "registered", line["type"])
	assert.Equal(t, "audit", line["component"])
}
