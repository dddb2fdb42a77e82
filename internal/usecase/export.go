package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/internal/services/chart"
	applogger "StockLens/pkg/logger"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPNG  = "png"
)

// AppState is what the CLI persists between runs.
type AppState struct {
	LastPayload *models.ChartPayload `json:"last_payload,omitempty"`
	SavedAt     *time.Time           `json:"saved_at,omitempty"`
}

// Exporter writes analysis payloads to disk and persists app state.
type Exporter struct {
	dir       string
	statePath string
	l         *applogger.Logger
	now       func() time.Time
}

func NewExporter(dir, statePath string, l *applogger.Logger) *Exporter {
	if l == nil {
		l = applogger.Nop()
	}
	return &Exporter{dir: dir, statePath: statePath, l: l, now: time.Now}
}

// Export writes p to <dir>/analysis_YYYYMMDD_HHMMSS.<format> and returns the
// path. Exports within the same second get a _2, _3, ... suffix instead of
// overwriting each other.
func (e *Exporter) Export(p *models.ChartPayload, format string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: no analysis to export", models.ErrInvalidArgument)
	}
	if format == "" {
		format = FormatJSON
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(p, "", "  ")
	case FormatCSV:
		data, err = payloadCSV(p)
	case FormatPNG:
		data, err = chart.RenderPNG(p)
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", models.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}

	path, err := createExport(e.dir, "analysis_"+e.now().Format("20060102_150405"), format, data)
	if err != nil {
		return "", err
	}
	e.l.Info("analysis exported", applogger.String("path", path), applogger.Int("bytes", len(data)))
	return path, nil
}

// payloadCSV writes one row per label: label, price, each dataset after the
// price in order, and an anomaly flag.
func payloadCSV(p *models.ChartPayload) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"label"}
	for _, ds := range p.Datasets {
		header = append(header, ds.Label)
	}
	header = append(header, "anomaly")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	flagged := make(map[int]bool, len(p.Anomalies))
	for _, i := range p.Anomalies {
		flagged[i] = true
	}
	for i, label := range p.Labels {
		row := []string{label}
		for _, ds := range p.Datasets {
			cell := ""
			if i < len(ds.Data) && ds.Data[i].Valid {
				cell = strconv.FormatFloat(ds.Data[i].Float64, 'f', -1, 64)
			}
			row = append(row, cell)
		}
		row = append(row, strconv.FormatBool(flagged[i]))
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// SaveState writes the state as pretty JSON.
func (e *Exporter) SaveState(s AppState) error {
	now := e.now().UTC()
	s.SavedAt = &now
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeFile(e.statePath, data)
}

// LoadState reads saved state. A missing file is an empty state.
func (e *Exporter) LoadState() (AppState, error) {
	var s AppState
	data, err := os.ReadFile(e.statePath)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return AppState{}, fmt.Errorf("decode state %s: %w", e.statePath, err)
	}
	return s, nil
}

// ListExports returns exported file names, newest first.
func (e *Exporter) ListExports() ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, en := range entries {
		if !en.IsDir() {
			names = append(names, en.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

const maxExportSuffix = 1000

// createExport writes data to the first free <dir>/<base>[_N].<ext>. O_EXCL
// makes the name claim atomic across concurrent exports.
func createExport(dir, base, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	for n := 1; n <= maxExportSuffix; n++ {
		name := base + "." + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%d.%s", base, n, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write %s: %w", path, werr)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free export name for %s.%s in %s", base, ext, dir)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
