package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPipelineMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterPipelineMetrics()
		RegisterPipelineMetrics()
	})
}

func TestDocumentsTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(DocumentsTotal.WithLabelValues(StageFilter, "kept"))
	DocumentsTotal.WithLabelValues(StageFilter, "kept").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(DocumentsTotal.WithLabelValues(StageFilter, "kept")), 0)
}

func TestWriteTextfile(t *testing.T) {
	RegisterPipelineMetrics()
	BuildRunsTotal.WithLabelValues("ok").Inc()

	path := filepath.Join(t.TempDir(), "pesto.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pesto_build_runs_total")
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "pesto.prom"))
	require.Error(t, err)
}
