package usecase

import (
	"context"
	"errors"
	"testing"

	"StockLens/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestStoresEachTicker(t *testing.T) {
	src := newFakeSource()
	src.bars["AAPL"] = barsOf(10.0, 11.0, nil)
	src.bars["MSFT"] = barsOf(20.0)
	store := &fakeStore{}

	in := NewIngestor(src, store, nil)
	reports, err := in.Ingest(context.Background(), []string{"aapl", "MSFT", "NFLX", "bad!"}, epoch, epoch.AddDate(0, 0, 5))
	require.NoError(t, err)

	require.Len(t, reports, 4)
	assert.Equal(t, IngestReport{Ticker: "AAPL", Rows: 3}, reports[0])
	assert.Equal(t, IngestReport{Ticker: "MSFT", Rows: 1}, reports[1])
	assert.Equal(t, "NFLX", reports[2].Ticker)
	assert.NotEmpty(t, reports[2].Error)
	assert.Equal(t, "bad!", reports[3].Ticker)
	assert.NotEmpty(t, reports[3].Error)

	assert.Equal(t, 1, store.schemaOK)
	assert.Equal(t, map[string]int{"AAPL": 3, "MSFT": 1}, store.stored)
	assert.Equal(t, 3, src.Calls())
}

func TestIngestFailures(t *testing.T) {
	src := newFakeSource()

	_, err := NewIngestor(src, &fakeStore{}, nil).Ingest(context.Background(), nil, epoch, epoch)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = NewIngestor(src, &fakeStore{}, nil).Ingest(context.Background(), []string{"AAPL"}, epoch.AddDate(0, 0, 1), epoch)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	schemaErr := errors.New("no permission")
	_, err = NewIngestor(src, &fakeStore{schemaErr: schemaErr}, nil).Ingest(context.Background(), []string{"AAPL"}, epoch, epoch)
	assert.ErrorIs(t, err, schemaErr)
	assert.Zero(t, src.Calls())

	reports, err := NewIngestor(src, &fakeStore{}, nil).Ingest(context.Background(), []string{"AAPL"}, epoch, epoch)
	assert.Error(t, err)
	require.Len(t, reports, 1)
	assert.NotEmpty(t, reports[0].Error)
}
