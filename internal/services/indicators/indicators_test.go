package indicators

import (
	"errors"
	"math/rand"
	"testing"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSeries(t *testing.T, want []*float64, got []null.Float) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if want[i] == nil {
			assert.False(t, got[i].Valid, "index %d should be null", i)
			continue
		}
		require.True(t, got[i].Valid, "index %d should be set", i)
		assert.InDelta(t, *want[i], got[i].Float64, 1e-9, "index %d", i)
	}
}

func f(v float64) *float64 { return &v }

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []null.Float
		window int
		mode   DivisorMode
		want   []*float64
	}{
		{"flat", models.Floats(10, 10, 10, 10), 2, DivideByWindow, []*float64{nil, f(10), f(10), f(10)}},
		{"ramp", models.Floats(1, 2, 3, 4, 5), 3, DivideByWindow, []*float64{nil, nil, f(2), f(3), f(4)}},
		{"window one", models.Floats(4, 5, 6), 1, DivideByWindow, []*float64{f(4), f(5), f(6)}},
		{"window longer than input", models.Floats(1, 2), 5, DivideByWindow, []*float64{nil, nil}},
		{"empty", nil, 3, DivideByWindow, []*float64{}},
		{
			"gap divides by window",
			[]null.Float{null.FloatFrom(2), {}, null.FloatFrom(4), null.FloatFrom(6)},
			2, DivideByWindow,
			[]*float64{nil, f(1), f(2), f(5)},
		},
		{
			"gap divides by count",
			[]null.Float{null.FloatFrom(2), {}, null.FloatFrom(4), null.FloatFrom(6)},
			2, DivideByCount,
			[]*float64{nil, f(2), f(4), f(5)},
		},
		{
			"all-null window by count",
			[]null.Float{{}, {}, null.FloatFrom(3)},
			2, DivideByCount,
			[]*float64{nil, nil, f(3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMA(tt.values, tt.window, tt.mode)
			require.NoError(t, err)
			assertSeries(t, tt.want, got)
		})
	}
}

func TestSMAInvalidWindow(t *testing.T) {
	for _, w := range []int{0, -3} {
		_, err := SMA(models.Floats(1, 2), w, DivideByWindow)
		assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	}
}

func TestSMALengthAndLeadingNulls(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + r.Intn(60)
		vals := make([]null.Float, n)
		for i := range vals {
			if r.Intn(8) > 0 {
				vals[i] = null.FloatFrom(r.Float64() * 100)
			}
		}
		window := 1 + r.Intn(10)
		got, err := SMA(vals, window, DivideByWindow)
		require.NoError(t, err)
		require.Len(t, got, n)
		for i := 0; i < window-1 && i < n; i++ {
			assert.False(t, got[i].Valid)
		}

		// running sum must agree with a direct re-sum
		for i := window - 1; i < n; i++ {
			sum := 0.0
			for j := i - window + 1; j <= i; j++ {
				if vals[j].Valid {
					sum += vals[j].Float64
				}
			}
			assert.InDelta(t, sum/float64(window), got[i].Float64, 1e-9)
		}
	}
}

func TestRSIFlatSeriesIs100(t *testing.T) {
	got, err := RSI(models.Floats(5, 5, 5, 5, 5, 5), 3)
	require.NoError(t, err)
	assertSeries(t, []*float64{nil, nil, f(100), f(100), f(100), f(100)}, got)
}

func TestRSIKnownValues(t *testing.T) {
	// changes: -, +1, -1, +2, -1
	got, err := RSI(models.Floats(10, 11, 10, 12, 11), 3)
	require.NoError(t, err)
	// i=2: gains [0,1,0] losses [0,0,1] -> rs 1 -> 50
	// i=3: gains [1,0,2] losses [0,1,0] -> rs 3 -> 75
	// i=4: gains [0,2,0] losses [1,0,1] -> rs 1 -> 50
	assertSeries(t, []*float64{nil, nil, f(50), f(75), f(50)}, got)
}

func TestRSITinyMoves(t *testing.T) {
	// steps of 1e-13: down, down, up
	got, err := RSI(models.Floats(3e-13, 2e-13, 1e-13, 2e-13), 2)
	require.NoError(t, err)
	assertSeries(t, []*float64{nil, f(0), f(0), f(50)}, got)
}

func TestRSIGapCountsAsNoMove(t *testing.T) {
	prices := []null.Float{null.FloatFrom(10), null.FloatFrom(9), {}, null.FloatFrom(12)}
	got, err := RSI(prices, 2)
	require.NoError(t, err)
	// i=1: loss 1 -> avgGain 0 -> 0; i=2: gains [0,0] losses [1,0] -> 0; i=3: no moves -> 100
	assertSeries(t, []*float64{nil, f(0), f(0), f(100)}, got)
}

func TestRSIBounded(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	vals := make([]null.Float, 300)
	p := 100.0
	for i := range vals {
		p += r.NormFloat64() * 2
		vals[i] = null.FloatFrom(p)
	}
	got, err := RSI(vals, 14)
	require.NoError(t, err)
	for i, v := range got {
		if i < 13 {
			assert.False(t, v.Valid)
			continue
		}
		require.True(t, v.Valid)
		assert.GreaterOrEqual(t, v.Float64, 0.0)
		assert.LessOrEqual(t, v.Float64, 100.0)
	}
}

func TestRSIInvalidWindow(t *testing.T) {
	_, err := RSI(models.Floats(1, 2, 3), 1)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestIndicatorNames(t *testing.T) {
	assert.Equal(t, "SMA_20", MovingAverage{Window: 20}.Name())
	assert.Equal(t, "RSI_14", StrengthIndex{Window: 14}.Name())

	mode, err := ParseDivisorMode("count")
	require.NoError(t, err)
	assert.Equal(t, DivideByCount, mode)
	_, err = ParseDivisorMode("median")
	assert.Error(t, err)
}
