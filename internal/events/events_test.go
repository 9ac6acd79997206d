package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	pubErr   error
	flushErr error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func sampleEvent() Event {
	return Event{
		Type:      MilestoneReached,
		UserID:    "u1",
		PathwayID: "ie-gp",
		Threshold: "50%",
		Percent:   60,
		At:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNATSPublisher_PublishesJSONOnTypedSubject(t *testing.T) {
	conn := &fakeConn{}
	p := &NATSPublisher{conn: conn}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Equal(t, []string{"pathways.milestone_reached"}, conn.subjects)

	var got Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, sampleEvent(), got)

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_Errors(t *testing.T) {
	down := errors.New("connection closed")

	p := &NATSPublisher{conn: &fakeConn{pubErr: down}}
	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), down)

	p = &NATSPublisher{conn: &fakeConn{flushErr: down}}
	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), down)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	out := buf.String()
	assert.Contains(t, out, "msg=pathway_event")
	assert.Contains(t, out, "pathway_id=ie-gp")
	assert.Contains(t, out, "threshold=50%")
}

func TestMulti_DeliversToAllAndReportsFirstError(t *testing.T) {
	down := errors.New("down")
	failing := &NATSPublisher{conn: &fakeConn{pubErr: down}}
	ok := &fakeConn{}

	m := Multi{Noop{}, failing, &NATSPublisher{conn: ok}}
	err := m.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, down)
	assert.Len(t, ok.subjects, 1)
}
