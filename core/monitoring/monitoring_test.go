package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadapt/telemetry/core/event"
	"github.com/openadapt/telemetry/core/factory"
)

type recordSink struct {
	name    string
	id      string
	err     error
	sent    int
	flushed bool
	closed  bool
}

func (r *recordSink) Send(context.Context, event.Event) (string, error) {
	r.sent++
	return r.id, r.err
}
func (r *recordSink) Flush(time.Duration) bool { r.flushed = true; return r.err == nil }
func (r *recordSink) Close() error             { r.closed = true; return r.err }
func (r *recordSink) Name() string             { return r.name }

func TestNopSink(t *testing.T) {
	ev := event.New(event.LevelInfo, "hi", time.Now())
	id, err := NopSink{}.Send(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, event.ID(ev), id)
	assert.True(t, NopSink{}.Flush(time.Second))
	assert.Equal(t, "nop", NameOf(NopSink{}))
}

func TestMultiSink_FirstIDWins(t *testing.T) {
	failing := &recordSink{name: "broken", err: errors.New("offline")}
	s1 := &recordSink{name: "a", id: "id-a"}
	s2 := &recordSink{name: "b", id: "id-b"}
	m := NewMultiSink(failing, s1, s2)

	id, err := m.Send(context.Background(), event.Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: offline")
	assert.Equal(t, "id-a", id)
	assert.Equal(t, 1, failing.sent)
	assert.Equal(t, 1, s2.sent)

	assert.False(t, m.Flush(time.Second))
	assert.True(t, s1.flushed)
	assert.Error(t, m.Close())
	assert.True(t, s2.closed)
}

func TestMultiSink_AllFail(t *testing.T) {
	m := NewMultiSink(&recordSink{name: "x", err: errors.New("down")}, &recordSink{name: "y", err: errors.New("gone")})
	id, err := m.Send(context.Background(), event.Event{})
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "x: down")
	assert.Contains(t, err.Error(), "y: gone")
}

func TestNewSink(t *testing.T) {
	s, err := NewSink(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	multi, ok := s.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)

	_, err = NewSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	assert.Error(t, err)
	assert.Contains(t, SinkTypes(), "nop")
}
