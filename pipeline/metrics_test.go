package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObservedThroughRegistry(t *testing.T) {
	first := &fakeStage{name: "first"}
	second := &fakeStage{name: "second", err: errors.New("boom")}
	m := NewManager(nil, testDefs(first, second))

	require.Error(t, m.RunAll(context.Background()))

	families, err := m.Metrics().Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]bool, len(families))
	counts := make(map[string]float64)
	for _, mf := range families {
		byName[mf.GetName()] = true
		if mf.GetName() != "pedal_stage_runs_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var stage, status string
			for _, label := range metric.GetLabel() {
				switch label.GetName() {
				case "stage":
					stage = label.GetValue()
				case "status":
					status = label.GetValue()
				}
			}
			counts[stage+"/"+status] = metric.GetCounter().GetValue()
		}
	}

	assert.True(t, byName["pedal_stage_runs_total"])
	assert.True(t, byName["pedal_stage_run_duration_seconds"])
	assert.Equal(t, 1.0, counts["first/completed"])
	assert.Equal(t, 1.0, counts["second/failed"])
}

func TestMetrics_RegistriesAreIndependent(t *testing.T) {
	a := NewManager(nil, testDefs(&fakeStage{name: "only"}))
	b := NewManager(nil, testDefs(&fakeStage{name: "only"}))
	require.NoError(t, a.RunAll(context.Background()))

	families, err := b.Metrics().Registry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families, "runs of one manager must not leak into another registry")
}
