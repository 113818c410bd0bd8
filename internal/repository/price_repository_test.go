package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byodlabs/databridge/internal/domain"
)

func TestPriceRepositoryUpsertBatch(t *testing.T) {
	repo := NewPriceRepository(openTestDB(t))
	ctx := context.Background()

	points := []domain.PricePoint{
		{Symbol: "SPY", Timestamp: 1614816000, Open: 10, High: 12, Low: 9, Close: 11, Volume: int64Ptr(1000)},
		{Symbol: "SPY", Timestamp: 1614902400, Open: 11, High: 13, Low: 10, Close: 12},
	}

	inserted, failures, err := repo.UpsertBatch(ctx, points)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Empty(t, failures)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPriceRepositoryUpsertBatchOverwritesDuplicates(t *testing.T) {
	repo := NewPriceRepository(openTestDB(t))
	ctx := context.Background()

	_, _, err := repo.UpsertBatch(ctx, []domain.PricePoint{
		{Symbol: "SPY", Timestamp: 1614816000, Open: 10, High: 12, Low: 9, Close: 11},
	})
	require.NoError(t, err)

	inserted, failures, err := repo.UpsertBatch(ctx, []domain.PricePoint{
		{Symbol: "SPY", Timestamp: 1614816000, Open: 10, High: 12, Low: 9, Close: 99, Volume: int64Ptr(500)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Empty(t, failures)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "same (symbol, timestamp) must replace, not duplicate")

	points, err := repo.ListRange(ctx, "SPY", 0, 2000000000)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 99.0, points[0].Close)
	require.NotNil(t, points[0].Volume)
	assert.Equal(t, int64(500), *points[0].Volume)
}

func TestPriceRepositoryListRange(t *testing.T) {
	repo := NewPriceRepository(openTestDB(t))
	ctx := context.Background()

	_, _, err := repo.UpsertBatch(ctx, []domain.PricePoint{
		{Symbol: "SPY", Timestamp: 300, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "SPY", Timestamp: 100, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "SPY", Timestamp: 200, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "AAPL", Timestamp: 200, Open: 1, High: 1, Low: 1, Close: 1},
	})
	require.NoError(t, err)

	points, err := repo.ListRange(ctx, "SPY", 100, 200)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(100), points[0].Timestamp, "results come back oldest first")
	assert.Equal(t, int64(200), points[1].Timestamp)

	points, err = repo.ListRange(ctx, "MSFT", 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestPriceRepositoryNullVolumeRoundTrip(t *testing.T) {
	repo := NewPriceRepository(openTestDB(t))
	ctx := context.Background()

	_, _, err := repo.UpsertBatch(ctx, []domain.PricePoint{
		{Symbol: "SPY", Timestamp: 100, Open: 1, High: 2, Low: 1, Close: 2},
	})
	require.NoError(t, err)

	points, err := repo.ListRange(ctx, "SPY", 0, 1000)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Volume)
}
