package analysis

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultTestFraction is the share of rows held out for evaluation
const DefaultTestFraction = 0.2

// ErrTooFewRows is returned when a fit has fewer rows than weights
var ErrTooFewRows = errors.New("not enough rows to fit the model")

// Dataset is a design matrix with its target
type Dataset struct {
	X *mat.Dense
	Y []float64
}

// Rows returns the number of observations
func (d Dataset) Rows() int {
	return len(d.Y)
}

// DatasetFromFrame uses target as Y and every other column as X, in frame
// order
func DatasetFromFrame(frame dataframe.DataFrame, target string) (Dataset, []string, error) {
	names := frame.Names()
	features := make([]string, 0, len(names)-1)
	found := false
	for _, n := range names {
		if n == target {
			found = true
			continue
		}
		features = append(features, n)
	}
	if !found {
		return Dataset{}, nil, fmt.Errorf("target column %q not in frame", target)
	}

	rows := frame.Nrow()
	x := mat.NewDense(rows, len(features), nil)
	for j, n := range features {
		for i, v := range frame.Col(n).Float() {
			x.Set(i, j, v)
		}
	}
	return Dataset{X: x, Y: frame.Col(target).Float()}, features, nil
}

// SplitTrainTest shuffles the rows with a PCG source seeded by seed and holds
// out testFraction of them. The same seed always gives the same split.
func SplitTrainTest(d Dataset, testFraction float64, seed uint64) (train, test Dataset, err error) {
	n := d.Rows()
	if testFraction <= 0 || testFraction >= 1 {
		return Dataset{}, Dataset{}, fmt.Errorf("test fraction %g outside (0, 1)", testFraction)
	}
	nTest := int(float64(n)*testFraction + 0.5)
	if nTest == 0 || nTest == n {
		return Dataset{}, Dataset{}, fmt.Errorf("%d rows cannot be split at %g: %w", n, testFraction, ErrTooFewRows)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	return subset(d, perm[nTest:]), subset(d, perm[:nTest]), nil
}

func subset(d Dataset, idx []int) Dataset {
	_, c := d.X.Dims()
	x := mat.NewDense(len(idx), c, nil)
	y := make([]float64, len(idx))
	for i, r := range idx {
		x.SetRow(i, d.X.RawRowView(r))
		y[i] = d.Y[r]
	}
	return Dataset{X: x, Y: y}
}

// Model is a fitted linear model over a fixed basis expansion
type Model struct {
	// Degree of the polynomial basis; 1 is plain OLS
	Degree int
	// Weights, the intercept first
	Weights []float64
}

// FitOLS fits ordinary least squares with an intercept
func FitOLS(train Dataset) (*Model, error) {
	return FitPolynomial(train, 1)
}

// FitPolynomial expands the features into every monomial up to degree,
// including the constant, and fits least squares on the expansion
func FitPolynomial(train Dataset, degree int) (*Model, error) {
	if degree < 1 {
		return nil, fmt.Errorf("degree must be at least 1, got %d", degree)
	}
	basis := PolynomialFeatures(train.X, degree)
	r, c := basis.Dims()
	if r < c {
		return nil, fmt.Errorf("%d rows for %d weights: %w", r, c, ErrTooFewRows)
	}

	var w mat.VecDense
	if err := w.SolveVec(basis, mat.NewVecDense(len(train.Y), append([]float64(nil), train.Y...))); err != nil {
		return nil, fmt.Errorf("least squares failed: %w", err)
	}

	return &Model{Degree: degree, Weights: mat.Col(nil, 0, &w)}, nil
}

// Predict evaluates the model on the rows of x
func (m *Model) Predict(x *mat.Dense) []float64 {
	basis := PolynomialFeatures(x, m.Degree)
	var out mat.VecDense
	out.MulVec(basis, mat.NewVecDense(len(m.Weights), m.Weights))
	return mat.Col(nil, 0, &out)
}

// PolynomialFeatures returns the bias column followed by every monomial of
// degree 1..degree, each degree in lexicographic order of feature indices
func PolynomialFeatures(x *mat.Dense, degree int) *mat.Dense {
	rows, cols := x.Dims()
	terms := monomials(cols, degree)

	out := mat.NewDense(rows, len(terms), nil)
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		for j, term := range terms {
			v := 1.0
			for _, f := range term {
				v *= row[f]
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// monomials lists the feature index multisets of every degree up to degree,
// starting with the empty product
func monomials(features, degree int) [][]int {
	terms := [][]int{{}}
	prev := [][]int{{}}
	for d := 1; d <= degree; d++ {
		var next [][]int
		for _, term := range prev {
			start := 0
			if len(term) > 0 {
				start = term[len(term)-1]
			}
			for f := start; f < features; f++ {
				t := make([]int, len(term)+1)
				copy(t, term)
				t[len(term)] = f
				next = append(next, t)
			}
		}
		terms = append(terms, next...)
		prev = next
	}
	return terms
}

// Evaluation holds the test metrics of a model
type Evaluation struct {
	MSE       float64
	R2        float64
	Predicted []float64
	Residuals []float64
	Weights   []float64
}

// Evaluate predicts test and compares with the true target
func Evaluate(m *Model, test Dataset) Evaluation {
	pred := m.Predict(test.X)
	residuals := make([]float64, len(pred))
	var sse float64
	for i := range pred {
		residuals[i] = test.Y[i] - pred[i]
		sse += residuals[i] * residuals[i]
	}

	ev := Evaluation{
		Predicted: pred,
		Residuals: residuals,
		Weights:   m.Weights,
		R2:        stat.RSquaredFrom(pred, test.Y, nil),
	}
	if len(pred) > 0 {
		ev.MSE = sse / float64(len(pred))
	}
	return ev
}
