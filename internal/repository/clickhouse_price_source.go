package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	"StockLens/internal/services/features"
	pkgch "StockLens/pkg/clickhouse"
	applogger "StockLens/pkg/logger"
	"StockLens/pkg/util"
)

const clickhouseSourceName = "clickhouse"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var barColumns = []string{"symbol", "day", "close", "source"}

// CHPriceSource reads and writes daily closes in a ClickHouse table shaped
// like (symbol, day, close Nullable(Float64), source, inserted_at).
type CHPriceSource struct {
	ch      *pkgch.Client
	db      *sql.DB
	query   string
	table   string
	metrics domrepo.Metrics
	l       *applogger.Logger
}

var (
	_ domrepo.PriceSource = (*CHPriceSource)(nil)
	_ domrepo.BarStore    = (*CHPriceSource)(nil)
)

// NewCHPriceSource validates the database and table names, which are
// interpolated into the query.
func NewCHPriceSource(ch *pkgch.Client, database, table string, metrics domrepo.Metrics, l *applogger.Logger) (*CHPriceSource, error) {
	q, err := buildBarsQuery(database, table)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceSource{ch: ch, db: ch.DB(), query: q, table: database + "." + table, metrics: metrics, l: l}, nil
}

func buildBarsQuery(database, table string) (string, error) {
	if !identRe.MatchString(database) || !identRe.MatchString(table) {
		return "", fmt.Errorf("%w: bad clickhouse identifier %q.%q", models.ErrInvalidArgument, database, table)
	}
	const qtpl = `
        SELECT day, close
        FROM %s.%s FINAL
        WHERE symbol = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	return fmt.Sprintf(qtpl, database, table), nil
}

// schemaDDL keeps one row per (symbol, day); re-ingesting a day replaces it.
func schemaDDL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol      LowCardinality(String),
            day         Date,
            close       Nullable(Float64),
            source      LowCardinality(String),
            inserted_at DateTime DEFAULT now()
        )
        ENGINE = ReplacingMergeTree(inserted_at)
        ORDER BY (symbol, day)
    `, table)
}

func (s *CHPriceSource) Name() string { return clickhouseSourceName }

// EnsureSchema creates the bars table when it does not exist.
func (s *CHPriceSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL(s.table)); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	s.l.Info("clickhouse schema ready", applogger.String("table", s.table))
	return nil
}

// StoreBars upserts bars for ticker. Closes that do not normalize to a
// number are stored as NULL.
func (s *CHPriceSource) StoreBars(ctx context.Context, ticker, source string, bars []models.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	rows := barRows(ticker, source, bars)
	if err := s.ch.InsertRows(ctx, s.table, barColumns, rows); err != nil {
		s.l.Error("clickhouse store_bars error",
			applogger.String("table", s.table),
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return 0, err
	}
	s.l.Debug("clickhouse store_bars ok",
		applogger.String("table", s.table),
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(rows)),
	)
	return len(rows), nil
}

func barRows(ticker, source string, bars []models.Bar) [][]interface{} {
	norm := features.NormalizePrices(features.CloseColumn(bars))

	rows := make([][]interface{}, len(bars))
	for i, b := range bars {
		var cl interface{}
		if norm[i].Valid {
			cl = norm[i].Float64
		}
		rows[i] = []interface{}{ticker, util.StartOfDay(b.Date), cl, source}
	}
	return rows
}

func (s *CHPriceSource) Ping(ctx context.Context) error { return s.ch.Ping(ctx) }

func (s *CHPriceSource) FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]models.Bar, error) {
	from, to := util.StartOfDay(start), util.StartOfDay(end)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: start is after end", models.ErrInvalidArgument)
	}

	began := time.Now()
	bars, err := s.fetch(ctx, ticker, from, to)
	if s.metrics != nil {
		s.metrics.RecordFetch(clickhouseSourceName, time.Since(began).Seconds(), ignoreNoData(err))
	}
	if err != nil {
		s.l.Error("clickhouse fetch_bars error",
			applogger.String("table", s.table),
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return nil, err
	}
	s.l.Debug("clickhouse fetch_bars ok",
		applogger.String("table", s.table),
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return bars, nil
}

func (s *CHPriceSource) fetch(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, s.query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var (
			day time.Time
			cl  sql.NullFloat64
		)
		if err := rows.Scan(&day, &cl); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bar := models.Bar{Date: util.StartOfDay(day)}
		if cl.Valid {
			bar.Close = cl.Float64
		}
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s between %s and %s", models.ErrNoData, ticker, from.Format(util.DateLayout), to.Format(util.DateLayout))
	}
	return out, nil
}
