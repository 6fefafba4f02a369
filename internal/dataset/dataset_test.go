package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MapsRowsInOrder(t *testing.T) {
	ds := New("posts.csv", []string{"Nome", "Partido"}, [][]string{
		{"Ana", "PT"},
		{"Bruno", "PL"},
	})

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"Nome", "Partido"}, ds.Headers)
	assert.Equal(t, Row{"Nome": "Ana", "Partido": "PT"}, ds.Rows[0])
	assert.Equal(t, Row{"Nome": "Bruno", "Partido": "PL"}, ds.Rows[1])
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "posts.csv", ds.Source)
	assert.False(t, ds.LoadedAt.IsZero())
}

func TestNew_PadsShortAndDropsExtraFields(t *testing.T) {
	ds := New("x", []string{"a", "b"}, [][]string{{"1"}, {"1", "2", "3"}})
	assert.Equal(t, Row{"a": "1", "b": ""}, ds.Rows[0])
	assert.Equal(t, Row{"a": "1", "b": "2"}, ds.Rows[1])
}

func TestNew_DuplicateHeaders(t *testing.T) {
	ds := New("x", []string{"Nome", " Nome ", "Nome_1", "Nome"}, nil)
	assert.Equal(t, []string{"Nome", "Nome_1", "Nome_1_1", "Nome_2"}, ds.Headers)
}

func TestNew_FreshIDPerLoad(t *testing.T) {
	a := New("x", []string{"a"}, nil)
	b := New("x", []string{"a"}, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFromRecords(t *testing.T) {
	ds := FromRecords("x", [][]string{{"Nome"}, {"Ana"}})
	assert.Equal(t, []string{"Nome"}, ds.Headers)
	assert.Equal(t, 1, ds.Len())

	empty := FromRecords("x", nil)
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Headers)

	headerOnly := FromRecords("x", [][]string{{"Nome"}})
	assert.True(t, headerOnly.Empty())
	assert.Equal(t, []string{"Nome"}, headerOnly.Headers)
}

func TestNilDataset(t *testing.T) {
	var ds *Dataset
	assert.Equal(t, 0, ds.Len())
	assert.True(t, ds.Empty())
}
