package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveStage("transform", 1500*time.Millisecond)
	m.SetTableRows(map[string]int{"order": 4, "customer": 3})
	m.SetImputed("delivery_time", 1)
	m.RunFinished(nil)
	m.RunFinished(errors.New("boom"))

	path := filepath.Join(t.TempDir(), "metrics", "eda.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `eda_stage_duration_seconds{stage="transform"} 1.5`)
	assert.Contains(t, text, `eda_table_rows{table="order"} 4`)
	assert.Contains(t, text, `eda_table_rows{table="customer"} 3`)
	assert.Contains(t, text, `eda_imputed_rows{column="delivery_time"} 1`)
	assert.Contains(t, text, `eda_runs_total{result="success"} 1`)
	assert.Contains(t, text, `eda_runs_total{result="failure"} 1`)
	assert.Contains(t, text, "eda_last_success_timestamp_seconds")
}

func TestMetricsRegistryIsolated(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.SetImputed("delivery_time", 5)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "eda_imputed_rows", f.GetName())
	}
}
