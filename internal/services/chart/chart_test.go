package chart

import (
	"bytes"
	"testing"
	"time"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloadLabelsAndMeta(t *testing.T) {
	prices := []null.Float{null.FloatFrom(10.123456), {}, null.FloatFrom(12), null.FloatFrom(11)}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2), day.Add(36 * time.Hour).Add(30 * time.Minute)}

	p, err := BuildPayload(prices, ts, nil, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, p.Title)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-03T12:30:00Z"}, p.Labels)
	require.Len(t, p.Datasets, 1)
	assert.Equal(t, "Price", p.Datasets[0].Label)
	assert.Equal(t, "line", p.Datasets[0].Type)
	assert.InDelta(t, 10.1235, p.Datasets[0].Data[0].Float64, 1e-9)
	assert.False(t, p.Datasets[0].Data[1].Valid)

	assert.InDelta(t, 10.123456, p.Meta.Min.Float64, 1e-12)
	assert.InDelta(t, 12, p.Meta.Max.Float64, 1e-12)
	assert.InDelta(t, 11.0412, p.Meta.Avg.Float64, 1e-9)
	assert.Equal(t, []int{}, p.Anomalies)
	assert.Empty(t, p.Warnings)
}

func TestBuildPayloadIndexLabels(t *testing.T) {
	p, err := BuildPayload(models.Floats(1, 2, 3), nil, nil, "AAPL Price Chart")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, p.Labels)
	assert.Equal(t, "AAPL Price Chart", p.Title)
}

func TestBuildPayloadIndicators(t *testing.T) {
	prices := models.Floats(1, 2, 3)
	ind := models.IndicatorSet{
		"SMA_2":  {{}, null.FloatFrom(1.5), null.FloatFrom(2.123456)},
		"RSI_2":  {{}, null.FloatFrom(100), null.FloatFrom(100)},
		"BROKEN": models.Floats(1, 2),
	}

	p, err := BuildPayload(prices, nil, ind, "t")
	require.NoError(t, err)

	labels := make([]string, len(p.Datasets))
	for i, ds := range p.Datasets {
		labels[i] = ds.Label
	}
	assert.Equal(t, []string{"Price", "RSI_2", "SMA_2"}, labels)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "BROKEN")
	require.Len(t, p.Indicators, 2)
	assert.NotContains(t, p.Indicators, "BROKEN")
	assert.InDelta(t, 2.1235, p.Indicators["SMA_2"][2].Float64, 1e-9)
	assert.Equal(t, p.Datasets[2].Data, p.Indicators["SMA_2"])
}

func TestBuildPayloadAllNull(t *testing.T) {
	p, err := BuildPayload([]null.Float{{}, {}}, nil, nil, "")
	require.NoError(t, err)
	assert.False(t, p.Meta.Min.Valid)
	assert.False(t, p.Meta.Max.Valid)
	assert.False(t, p.Meta.Avg.Valid)
}

func TestBuildPayloadErrors(t *testing.T) {
	_, err := BuildPayload(nil, nil, nil, "")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = BuildPayload(models.Floats(1, 2), []time.Time{time.Now()}, nil, "")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestRenderPNG(t *testing.T) {
	prices := models.Floats(10, 11, 10.5, 12, 13, 12.5)
	ind := models.IndicatorSet{"SMA_2": {{}, null.FloatFrom(10.5), null.FloatFrom(10.75), null.FloatFrom(11.25), null.FloatFrom(12.5), null.FloatFrom(12.75)}}
	p, err := BuildPayload(prices, nil, ind, "TEST Price Chart")
	require.NoError(t, err)
	p.Anomalies = []int{3}

	img, err := RenderPNG(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}

func TestRenderPNGFlatSeries(t *testing.T) {
	p, err := BuildPayload(models.Floats(5, 5, 5), nil, nil, "")
	require.NoError(t, err)

	img, err := RenderPNG(p)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestRenderPNGNeedsTwoPoints(t *testing.T) {
	p, err := BuildPayload([]null.Float{null.FloatFrom(1), {}}, nil, nil, "")
	require.NoError(t, err)

	_, err = RenderPNG(p)
	assert.Error(t, err)
}
