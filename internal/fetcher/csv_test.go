package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "Nome,Partido\nAna,PT\nBruno,PL\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Nome", "Partido"}, rows[0])
	assert.Equal(t, []string{"Ana", "PT"}, rows[1])
	assert.Equal(t, []string{"Bruno", "PL"}, rows[2])
}

func TestReadCSV_DetectsSemicolon(t *testing.T) {
	input := "Nome;Total de Interações\n\"Silva, Ana\";1.234,5\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Silva, Ana", "1.234,5"}, rows[1])
}

func TestReadCSV_ExplicitDelimiter(t *testing.T) {
	input := "a|b\n1|2\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\ufeffNome,URL\nAna,https://x.com/ana\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Nome", rows[0][0])
}

func TestReadCSV_SkipsBlankLinesAndVariableFields(t *testing.T) {
	input := "a,b,c\n\n1,2\n4,5,6,7\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "2"}, rows[1])
	assert.Equal(t, []string{"4", "5", "6", "7"}, rows[2])
}

func TestReadCSV_TrimSpace(t *testing.T) {
	input := "a , b\n 1 , 2 \n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_Malformed(t *testing.T) {
	input := "a,b\n\"unterminated,2\n"
	_, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestReadCSV_LazyQuotes(t *testing.T) {
	input := "a,b\nsay \"hi\",2\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true})
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, rows[1][0])
}

func TestReadCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{`"x;y",b,c`, ','},
		{"single", ','},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter(tt.line))
		})
	}
}
