package usecase

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/internal/services/chart"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) *models.ChartPayload {
	t.Helper()
	prices := []null.Float{null.FloatFrom(10), null.FloatFrom(11.5), {}, null.FloatFrom(12)}
	ts := []time.Time{epoch, epoch.AddDate(0, 0, 1), epoch.AddDate(0, 0, 2), epoch.AddDate(0, 0, 3)}
	p, err := chart.BuildPayload(prices, ts, models.IndicatorSet{
		"SMA_2": {{}, null.FloatFrom(10.75), {}, {}},
	}, "TEST Price Chart")
	require.NoError(t, err)
	p.Anomalies = []int{1}
	return p
}

func newTestExporter(t *testing.T) *Exporter {
	dir := t.TempDir()
	e := NewExporter(filepath.Join(dir, "reports"), filepath.Join(dir, "state", "app_state.json"), nil)
	e.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return e
}

func TestExportJSON(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(samplePayload(t), "")
	require.NoError(t, err)
	assert.Equal(t, "analysis_20240506_070809.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("\n  \"title\": \"TEST Price Chart\"")), "pretty printed")

	var got models.ChartPayload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []int{1}, got.Anomalies)
	assert.Equal(t, "2024-01-02", got.Labels[1])

	names, err := e.ListExports()
	require.NoError(t, err)
	assert.Equal(t, []string{"analysis_20240506_070809.json"}, names)
}

func TestExportSameSecondDoesNotOverwrite(t *testing.T) {
	e := newTestExporter(t)
	p := samplePayload(t)

	first, err := e.Export(p, FormatJSON)
	require.NoError(t, err)
	second, err := e.Export(p, FormatJSON)
	require.NoError(t, err)
	third, err := e.Export(p, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "analysis_20240506_070809.json", filepath.Base(first))
	assert.Equal(t, "analysis_20240506_070809_2.json", filepath.Base(second))
	assert.Equal(t, "analysis_20240506_070809.csv", filepath.Base(third))

	names, err := e.ListExports()
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestExportCSV(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(samplePayload(t), FormatCSV)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"label,Price,SMA_2,anomaly",
		"2024-01-01,10,,false",
		"2024-01-02,11.5,10.75,true",
		"2024-01-03,,,false",
		"2024-01-04,12,,false",
	}, lines)
}

func TestExportPNG(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.Export(samplePayload(t), FormatPNG)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestExportErrors(t *testing.T) {
	e := newTestExporter(t)
	_, err := e.Export(nil, FormatJSON)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = e.Export(samplePayload(t), "xlsx")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestStateRoundTrip(t *testing.T) {
	e := newTestExporter(t)

	s, err := e.LoadState()
	require.NoError(t, err)
	assert.Nil(t, s.LastPayload)

	p := samplePayload(t)
	require.NoError(t, e.SaveState(AppState{LastPayload: p}))

	s, err = e.LoadState()
	require.NoError(t, err)
	require.NotNil(t, s.LastPayload)
	assert.Equal(t, p.Title, s.LastPayload.Title)
	assert.Equal(t, p.Labels, s.LastPayload.Labels)
	require.NotNil(t, s.SavedAt)
}

func TestLoadStateCorrupt(t *testing.T) {
	e := newTestExporter(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(e.statePath), 0o755))
	require.NoError(t, os.WriteFile(e.statePath, []byte("{not json"), 0o644))
	_, err := e.LoadState()
	assert.Error(t, err)
}
