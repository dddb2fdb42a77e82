package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	applogger "StockLens/pkg/logger"
	"StockLens/pkg/util"
)

// IngestReport is the outcome for one ticker.
type IngestReport struct {
	Ticker string `json:"ticker"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// Ingestor copies daily bars from a live source into a BarStore so the store
// can later serve them as a price source.
type Ingestor struct {
	source domrepo.PriceSource
	store  domrepo.BarStore
	l      *applogger.Logger
}

func NewIngestor(source domrepo.PriceSource, store domrepo.BarStore, l *applogger.Logger) *Ingestor {
	if l == nil {
		l = applogger.Nop()
	}
	return &Ingestor{source: source, store: store, l: l.Component("ingest")}
}

// Ingest fetches [start, end] for every ticker and stores the bars. A ticker
// that fails is reported and skipped; the error is non-nil only when the
// schema cannot be created or every ticker failed.
func (in *Ingestor) Ingest(ctx context.Context, tickers []string, start, end time.Time) ([]IngestReport, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers to ingest", models.ErrInvalidArgument)
	}
	if util.StartOfDay(end).Before(util.StartOfDay(start)) {
		return nil, fmt.Errorf("%w: start is after end", models.ErrInvalidArgument)
	}
	if err := in.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	reports := make([]IngestReport, 0, len(tickers))
	failed := 0
	for _, raw := range tickers {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep := in.ingestOne(ctx, raw, start, end)
		if rep.Error != "" {
			failed++
		}
		reports = append(reports, rep)
	}

	in.l.Info("ingest finished",
		applogger.String("source", in.source.Name()),
		applogger.Int("tickers", len(tickers)),
		applogger.Int("failed", failed),
	)
	if failed == len(tickers) {
		return reports, errors.New("ingest failed for every ticker")
	}
	return reports, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, raw string, start, end time.Time) IngestReport {
	sym, err := models.NormalizeTicker(raw)
	if err != nil {
		return IngestReport{Ticker: raw, Error: err.Error()}
	}
	rep := IngestReport{Ticker: sym}

	bars, err := in.source.FetchBars(ctx, sym, start, end)
	if err != nil {
		in.l.Warn("ingest fetch failed", applogger.String("ticker", sym), applogger.Error(err))
		rep.Error = err.Error()
		return rep
	}
	n, err := in.store.StoreBars(ctx, sym, in.source.Name(), bars)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Rows = n
	return rep
}
