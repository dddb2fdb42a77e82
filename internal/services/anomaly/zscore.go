package anomaly

import (
	"fmt"
	"math"
	"time"

	"StockLens/internal/domain/models"
	domsvc "StockLens/internal/domain/service"
	"StockLens/internal/services/features"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

// ZScoreOptions tunes the rolling log-return detector.
type ZScoreOptions struct {
	Window     int
	Threshold  float64
	MinNonNull int // 0 means ceil(Window * 0.5)
}

// DefaultZScoreOptions mirrors the usual 20 bar / 3 sigma setup.
func DefaultZScoreOptions() ZScoreOptions {
	return ZScoreOptions{Window: 20, Threshold: 3.0}
}

// ZScore scores each log return against the mean and population standard
// deviation of up to Window preceding returns and reports those beyond
// Threshold. A zero-variance window makes any differing return unbounded;
// such alerts carry a null score. A return equal to a zero-variance window's
// mean is not flagged, although a plain (r-mean)/std rule would score it as
// an unbounded deviation too.
func ZScore(prices []null.Float, timestamps []time.Time, opts ZScoreOptions) ([]models.VolatilityAlert, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 prices, got %d", models.ErrInvalidArgument, len(prices))
	}
	if timestamps != nil && len(timestamps) != len(prices) {
		return nil, fmt.Errorf("%w: %d timestamps for %d prices", models.ErrInvalidArgument, len(timestamps), len(prices))
	}
	if opts.Window < 2 {
		return nil, fmt.Errorf("%w: window must be >= 2, got %d", models.ErrInvalidArgument, opts.Window)
	}
	if opts.Threshold <= 0 || math.IsNaN(opts.Threshold) {
		return nil, fmt.Errorf("%w: z threshold must be positive, got %v", models.ErrInvalidArgument, opts.Threshold)
	}
	minNonNull := opts.MinNonNull
	if minNonNull <= 0 {
		minNonNull = int(math.Ceil(float64(opts.Window) * 0.5))
	}

	returns := features.LogReturns(prices)
	alerts := []models.VolatilityAlert{}
	window := make([]float64, 0, opts.Window)

	for i := 1; i < len(prices); i++ {
		if !returns[i].Valid {
			continue
		}
		window = window[:0]
		for j := max(1, i-opts.Window); j < i; j++ {
			if returns[j].Valid {
				window = append(window, returns[j].Float64)
			}
		}
		if len(window) < minNonNull {
			continue
		}

		mean, std := meanPStdev(window)
		r := returns[i].Float64
		var z float64
		if std == 0 {
			if r == mean {
				continue
			}
			z = math.Inf(1)
		} else {
			z = (r - mean) / std
		}
		if math.Abs(z) <= opts.Threshold {
			continue
		}

		alert := models.VolatilityAlert{
			Index:  i,
			Price:  prices[i].Float64,
			Reason: models.VolatilityReason,
		}
		if !math.IsInf(z, 0) {
			alert.ZScore = null.FloatFrom(util.Round(z, 4))
		}
		if timestamps != nil {
			ts := timestamps[i]
			alert.Timestamp = &ts
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Indices extracts the flagged positions from alerts.
func Indices(alerts []models.VolatilityAlert) []int {
	out := make([]int, len(alerts))
	for i, a := range alerts {
		out[i] = a.Index
	}
	return out
}

func meanPStdev(xs []float64) (float64, float64) {
	n := float64(len(xs))
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}

// ZScoreDetector is the log-return strategy behind domsvc.AnomalyDetector.
type ZScoreDetector struct {
	Options ZScoreOptions
}

var _ domsvc.AnomalyDetector = ZScoreDetector{}

func (d ZScoreDetector) Name() string { return "zscore" }

func (d ZScoreDetector) Detect(series models.PriceSeries) ([]int, error) {
	alerts, err := ZScore(series.Prices, series.Timestamps, d.Options)
	if err != nil {
		return nil, err
	}
	return Indices(alerts), nil
}
