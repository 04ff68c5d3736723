package store

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func sampleResult(startedAt time.Time, seed int64) *harness.Result {
	summary := func(mean float64) stats.Summary {
		return stats.Summary{N: 5, Mean: mean, Median: mean - 1, StdPop: 1, StdSample: 1.2}
	}

	return &harness.Result{
		Config:    harness.Config{Elements: 1000, Queries: 11, Blocks: 2, SampleCap: 3},
		Seed:      seed,
		StartedAt: startedAt,
		Elapsed:   1500 * time.Millisecond,
		Blocks: []harness.BlockStats{
			{Block: 1, N: 5, Range: summary(20), Map: summary(40)},
			{Block: 2, N: 5, Range: summary(21), Map: summary(39)},
		},
		Range:      summary(20.5),
		Map:        summary(39.5),
		Welch:      stats.WelchResult{NX: 10, NY: 10, T: -8.1, DF: 17.9, PTwoTailed: 2.1e-7},
		RangeTimes: make([]uint32, 10),
		MapTimes:   make([]uint32, 10),
	}
}

func TestSaveAndListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	firstID, err := s.SaveRun(ctx, sampleResult(base, 1))
	require.NoError(t, err)
	secondID, err := s.SaveRun(ctx, sampleResult(base.Add(time.Hour), 2))
	require.NoError(t, err)

	_, err = uuid.Parse(firstID)
	assert.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	assert.Equal(t, secondID, latest.ID)
	assert.True(t, latest.StartedAt.Equal(base.Add(time.Hour)))
	assert.Equal(t, 1500*time.Millisecond, latest.Elapsed)
	assert.Equal(t, 1000, latest.Elements)
	assert.Equal(t, 11, latest.Queries)
	assert.Equal(t, 10, latest.Executed)
	assert.Equal(t, int64(2), latest.Seed)
	assert.Equal(t, 20.5, latest.RangeMean)
	assert.Equal(t, 38.5, latest.MapMed)
	assert.Equal(t, -8.1, latest.T)
	assert.Equal(t, 2.1e-7, latest.PTwoTailed)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, secondID, limited[0].ID)
}

func TestRunBlocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res := sampleResult(time.Now(), 5)
	res.Blocks[1].Map.StdSample = math.NaN()

	id, err := s.SaveRun(ctx, res)
	require.NoError(t, err)

	blocks, err := s.RunBlocks(ctx, id)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 1, blocks[0].Block)
	assert.Equal(t, 5, blocks[0].N)
	assert.Equal(t, 20.0, blocks[0].RangeMean)
	assert.Equal(t, 1.2, blocks[0].MapStd)

	assert.Equal(t, 2, blocks[1].Block)
	assert.Equal(t, 39.0, blocks[1].MapMean)
	assert.True(t, math.IsNaN(blocks[1].MapStd))
}

func TestRunBlocksUnknownRun(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RunBlocks(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRunNil(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveRun(context.Background(), nil)
	require.Error(t, err)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := s.SaveRun(ctx, sampleResult(time.Now(), 9))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}

func TestEmptyHistory(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestBlockJSONUndefinedDeviation(t *testing.T) {
	b := Block{Block: 1, N: 1, RangeMean: 20, RangeMedian: 20, RangeStd: math.NaN(),
		MapMean: 40, MapMedian: 40, MapStd: math.NaN()}

	data, err := json.Marshal([]Block{b})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"range_std_sample":null`)
	assert.Contains(t, string(data), `"map_std_sample":null`)

	var got []Block
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].RangeMean)
	assert.True(t, math.IsNaN(got[0].RangeStd))
	assert.True(t, math.IsNaN(got[0].MapStd))

	b.MapStd = 3.5
	data, err = json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"map_std_sample":3.5`)
}
