package analysis

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMatrix(t *testing.T) {
	frame := dataframe.New(
		series.New([]float64{1, 2, 3, 4}, series.Float, "a"),
		series.New([]float64{2, 4, 6, 8}, series.Float, "b"),
		series.New([]float64{4, 3, 2, 1}, series.Float, "c"),
	)

	corr, err := CorrelationMatrix(frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, corr.Columns)

	tests := []struct {
		a, b string
		want float64
	}{
		{"a", "a", 1},
		{"a", "b", 1},
		{"a", "c", -1},
		{"c", "b", -1},
	}
	for _, tt := range tests {
		got, err := corr.At(tt.a, tt.b)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "%s/%s", tt.a, tt.b)
	}

	_, err = corr.At("a", "z")
	assert.Error(t, err)
}

func TestCorrelationMatrixTooSmall(t *testing.T) {
	frame := dataframe.New(series.New([]float64{1}, series.Float, "a"))
	_, err := CorrelationMatrix(frame)
	assert.Error(t, err)
}
