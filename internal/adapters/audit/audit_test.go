package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/pressqueue/internal/domain/model"
)

type publishCall struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	mu     sync.Mutex
	calls  []publishCall
	err    error
	closed bool
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPSink_Record(t *testing.T) {
	ch := &fakeChannel{}
	sink := &AMQPSink{ch: ch, exchange: "pressqueue.audit"}
	jobID := "job-1"
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	err := sink.Record(context.Background(), model.AuditEvent{
		CampaignID: "camp-1",
		JobID:      &jobID,
		Type:       model.AuditEventContentPublished,
		Message:    "published",
		CreatedAt:  at,
	})
	require.NoError(t, err)

	require.Len(t, ch.calls, 1)
	call := ch.calls[0]
	assert.Equal(t, "pressqueue.audit", call.exchange)
	assert.Equal(t, "audit.content_published", call.key)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)
	assert.Equal(t, at, call.msg.Timestamp)

	var decoded model.AuditEvent
	require.NoError(t, json.Unmarshal(call.msg.Body, &decoded))
	assert.Equal(t, "camp-1", decoded.CampaignID)
	assert.Equal(t, "job-1", *decoded.JobID)

	require.NoError(t, sink.Close())
	assert.True(t, ch.closed)
	require.Error(t, sink.Record(context.Background(), model.AuditEvent{Type: model.AuditEventContentFailed}))
}

func TestAMQPSink_PublishError(t *testing.T) {
	sink := &AMQPSink{ch: &fakeChannel{err: amqp.ErrClosed}, exchange: "x"}
	err := sink.Record(context.Background(), model.AuditEvent{Type: model.AuditEventImageSkipped})
	require.ErrorIs(t, err, amqp.ErrClosed)
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.AuditEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, e model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recordingSink{}, &recordingSink{err: boom}
	f := NewFanout(a, nil, b)
	require.Len(t, f, 2)

	err := f.Record(context.Background(), model.AuditEvent{CampaignID: "camp-1"})
	require.ErrorIs(t, err, boom)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)

	require.NoError(t, NewFanout().Record(context.Background(), model.AuditEvent{}))
}
