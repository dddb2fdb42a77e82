package chart

import (
	"bytes"
	"fmt"
	"strconv"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var palette = []string{"f59e0b", "10b981", "8b5cf6", "ef4444", "0ea5e9"}

// RenderPNG draws the payload's datasets as a line chart and returns PNG bytes.
// All datasets share one Y axis; anomalies are drawn as dots on the price line.
func RenderPNG(p *models.ChartPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", models.ErrInvalidArgument)
	}
	price := p.PriceData()
	xs, ys := validPoints(price)
	if len(xs) < 2 {
		return nil, fmt.Errorf("need at least 2 price points, got %d", len(xs))
	}

	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    models.PriceLabel,
			Style:   gochart.Style{StrokeColor: drawing.ColorFromHex("2563eb"), StrokeWidth: 2},
			XValues: xs,
			YValues: ys,
		},
	}

	colour := 0
	for _, ds := range p.Datasets {
		if ds.Label == models.PriceLabel {
			continue
		}
		ix, iy := validPoints(ds.Data)
		if len(ix) < 2 {
			continue
		}
		series = append(series, gochart.ContinuousSeries{
			Name: ds.Label,
			Style: gochart.Style{
				StrokeColor:     drawing.ColorFromHex(palette[colour%len(palette)]),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: ix,
			YValues: iy,
		})
		colour++
	}

	if ax, ay := anomalyPoints(p.Anomalies, price); len(ax) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name: "Anomaly",
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    4,
				DotColor:    drawing.ColorFromHex("dc2626"),
			},
			XValues: ax,
			YValues: ay,
		})
	}

	labels := p.Labels
	graph := gochart.Chart{
		Title:  p.Title,
		Width:  1000,
		Height: 450,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					i := int(f)
					if i >= 0 && i < len(labels) {
						return labels[i]
					}
					return strconv.Itoa(i)
				}
				return ""
			},
		},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	if p.Meta.Min.Valid && p.Meta.Max.Valid && p.Meta.Min.Float64 == p.Meta.Max.Float64 {
		// go-chart refuses a zero-height range
		v := p.Meta.Min.Float64
		graph.YAxis.Range = &gochart.ContinuousRange{Min: v - 1, Max: v + 1}
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func validPoints(data []null.Float) ([]float64, []float64) {
	xs := make([]float64, 0, len(data))
	ys := make([]float64, 0, len(data))
	for i, v := range data {
		if v.Valid {
			xs = append(xs, float64(i))
			ys = append(ys, v.Float64)
		}
	}
	return xs, ys
}

func anomalyPoints(idx []int, price []null.Float) ([]float64, []float64) {
	var xs, ys []float64
	for _, i := range idx {
		if i >= 0 && i < len(price) && price[i].Valid {
			xs = append(xs, float64(i))
			ys = append(ys, price[i].Float64)
		}
	}
	return xs, ys
}
