package viewcache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/postmetrics/internal/dashboard"
	"github.com/sells-group/postmetrics/internal/dataset"
)

func testDataset() *dataset.Dataset {
	return dataset.New("posts.csv", []string{"Nome", "Data", "Total de Interações", "Partido"}, [][]string{
		{"Ana", "2024-01-01", "10", "PT"},
		{"Bia", "2024-01-02", "20", "PL"},
	})
}

func TestCache_HitOnIdenticalParams(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ds := testDataset()

	first, err := c.Views(context.Background(), ds, dashboard.Params{TopN: 5})
	require.NoError(t, err)
	second, err := c.Views(context.Background(), ds, dashboard.Params{TopN: 5})
	require.NoError(t, err)

	assert.Same(t, first, second)
	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Entries)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}

func TestCache_EquivalentParamsShareEntry(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ds := testDataset()

	a, err := c.Views(context.Background(), ds, dashboard.Params{})
	require.NoError(t, err)
	b, err := c.Views(context.Background(), ds, dashboard.Params{
		TopN:  dashboard.DefaultTopN,
		Table: dashboard.TableQuery{Page: 1, Filters: map[string]string{"Partido": " "}},
	})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCache_DifferentParamsMiss(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ds := testDataset()

	a, err := c.Views(context.Background(), ds, dashboard.Params{})
	require.NoError(t, err)
	b, err := c.Views(context.Background(), ds, dashboard.Params{Table: dashboard.TableQuery{Filters: map[string]string{"Partido": "pt"}}})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, a.Table.Total)
	assert.Equal(t, 1, b.Table.Total)
}

func TestCache_NewDatasetMisses(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	a, err := c.Views(context.Background(), testDataset(), dashboard.Params{})
	require.NoError(t, err)
	b, err := c.Views(context.Background(), testDataset(), dashboard.Params{})
	require.NoError(t, err)
	assert.NotEqual(t, a.DatasetID, b.DatasetID)
	assert.Equal(t, int64(2), c.Stats().Misses)
}

func TestCache_Eviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	ds := testDataset()

	for _, n := range []int{1, 2, 3} {
		_, err := c.Views(context.Background(), ds, dashboard.Params{TopN: n})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Stats().Entries)

	_, err = c.Views(context.Background(), ds, dashboard.Params{TopN: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Stats().Misses)
}

func TestCache_Invalidate(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	keep, drop := testDataset(), testDataset()

	_, err = c.Views(context.Background(), keep, dashboard.Params{})
	require.NoError(t, err)
	_, err = c.Views(context.Background(), drop, dashboard.Params{})
	require.NoError(t, err)
	_, err = c.Views(context.Background(), drop, dashboard.Params{TopN: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Invalidate(drop.ID))
	assert.Equal(t, 1, c.Stats().Entries)

	c.Purge()
	assert.Zero(t, c.Stats().Entries)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Views(ctx, testDataset(), dashboard.Params{})
	require.Error(t, err)
	assert.Zero(t, c.Stats().Entries)

	_, err = c.Views(context.Background(), nil, dashboard.Params{})
	assert.Error(t, err)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ds := testDataset()

	var wg sync.WaitGroup
	results := make([]*dashboard.Views, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Views(context.Background(), ds, dashboard.Params{TopN: 2})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, c.Stats().Entries)
	for _, v := range results {
		require.NotNil(t, v)
		assert.Equal(t, ds.ID, v.DatasetID)
	}
}

func TestKey(t *testing.T) {
	a, err := Key("ds", dashboard.Params{Table: dashboard.TableQuery{Filters: map[string]string{"b": "2", "a": "1"}}})
	require.NoError(t, err)
	b, err := Key("ds", dashboard.Params{Table: dashboard.TableQuery{Filters: map[string]string{"a": "1", "b": "2"}}})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Key("other", dashboard.Params{})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
