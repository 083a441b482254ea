package analysis

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation is a labelled Pearson correlation matrix
type Correlation struct {
	Columns []string
	Matrix  *mat.SymDense
}

// At returns the coefficient of two named columns
func (c Correlation) At(a, b string) (float64, error) {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("unknown column %q or %q", a, b)
	}
	return c.Matrix.At(i, j), nil
}

func (c Correlation) index(name string) int {
	for i, col := range c.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// CorrelationMatrix computes the Pearson matrix of every column of frame.
// Constant columns produce NaN coefficients.
func CorrelationMatrix(frame dataframe.DataFrame) (Correlation, error) {
	rows, cols := frame.Dims()
	if rows < 2 || cols == 0 {
		return Correlation{}, fmt.Errorf("frame too small for correlation: %dx%d", rows, cols)
	}

	data := mat.NewDense(rows, cols, nil)
	names := frame.Names()
	for j, name := range names {
		col := frame.Col(name).Float()
		for i, v := range col {
			data.Set(i, j, v)
		}
	}

	var sym mat.SymDense
	stat.CorrelationMatrix(&sym, data, nil)
	return Correlation{Columns: names, Matrix: &sym}, nil
}
