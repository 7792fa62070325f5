package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadapt/telemetry/core/factory"
)

type recordRecorder struct {
	pipeline int
	reloads  int
	err      error
}

func (r *recordRecorder) RecordPipeline(PipelineEvent) error { r.pipeline++; return r.err }
func (r *recordRecorder) RecordConfigReload(bool) error      { r.reloads++; return nil }

type pipelineOnly struct{ n int }

func (p *pipelineOnly) RecordPipeline(PipelineEvent) error { p.n++; return nil }

func TestMultiRecorder(t *testing.T) {
	r1 := &recordRecorder{}
	r2 := &recordRecorder{err: errors.New("down")}
	p := &pipelineOnly{}
	m := NewMultiRecorder(r1, r2, p)

	err := m.RecordPipeline(PipelineEvent{Kind: KindMessage, Outcome: OutcomeSent})
	assert.Error(t, err)
	assert.Equal(t, 1, r1.pipeline)
	assert.Equal(t, 1, r2.pipeline)
	assert.Equal(t, 1, p.n)

	require.NoError(t, m.RecordConfigReload(true))
	assert.Equal(t, 1, r1.reloads)
	assert.Equal(t, 1, r2.reloads)
}

func TestNewRecorder(t *testing.T) {
	r, err := NewRecorder(nil)
	require.NoError(t, err)
	assert.IsType(t, NopRecorder{}, r)

	r, err = NewRecorder([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := r.(*MultiRecorder)
	require.True(t, ok)
	assert.Len(t, m.Recorders, 2)

	_, err = NewRecorder([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
}
