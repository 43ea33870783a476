package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()
	m := New()

	m.FileDiscovered()
	m.FileDiscovered()
	m.FileProcessed()
	m.FileFailed(ReasonRead)
	m.Comments(3, 2)
	m.Comments(1, 0)
	m.RowsPersisted("files", 1)
	m.RowsPersisted("comments", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesDiscovered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesFailed.WithLabelValues(ReasonRead)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.filesFailed.WithLabelValues(ReasonExtract)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.commentsRetained))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commentsDropped))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rowsPersisted.WithLabelValues("comments")))
}

func TestMetrics_FailureSeriesExportAtZero(t *testing.T) {
	t.Parallel()
	m := New()

	expected := `
# HELP distiller_files_failed_total Files dropped from the scan because they could not be processed
# TYPE distiller_files_failed_total counter
distiller_files_failed_total{reason="extract"} 0
distiller_files_failed_total{reason="read"} 0
distiller_files_failed_total{reason="unsupported"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "distiller_files_failed_total"))
}

func TestMetrics_ScanHistogram(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveScan(250 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.scanDuration))
}

func TestMetrics_PrivateRegistries(t *testing.T) {
	t.Parallel()
	a, b := New(), New()
	a.FileDiscovered()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.filesDiscovered))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.filesDiscovered))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()
	m := New()
	m.FileProcessed()

	path := filepath.Join(t.TempDir(), "distiller.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "distiller_files_processed_total 1")
	assert.Contains(t, string(data), "distiller_scan_duration_seconds_bucket")
}

func TestMetrics_WriteTextfileBadPath(t *testing.T) {
	t.Parallel()
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.FileDiscovered()
	m.FileProcessed()
	m.FileFailed(ReasonRead)
	m.Comments(1, 1)
	m.RowsPersisted("files", 1)
	m.ObserveScan(time.Second)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("ignored"))
}
