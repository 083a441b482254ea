package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"taxipulse/pkg/contracts/domain"
)

// DefaultBoxCoxLambda is the fixed exponent applied to trip durations
const DefaultBoxCoxLambda = -0.42

// Search interval of the Yeo-Johnson lambda
const (
	yeoJohnsonLambdaMin = -2.0
	yeoJohnsonLambdaMax = 2.0
	goldenTolerance     = 1e-8
)

// Feature column names of the Gaussianized frame
const (
	FeatureDuration   = "trip_duration_minutes"
	FeatureDayOfMonth = "pickup_day_of_month"
	FeatureWeekday    = "pickup_weekday"
	FeatureHour       = "pickup_hour"
	FeatureMinute     = "pickup_minute"
)

// FeatureColumns lists the frame columns in order
var FeatureColumns = []string{FeatureDuration, FeatureDayOfMonth, FeatureWeekday, FeatureHour, FeatureMinute}

// ErrNonPositive is returned by BoxCox for values <= 0
var ErrNonPositive = errors.New("box-cox requires positive values")

// BoxCox applies the Box-Cox transform with a fixed lambda
func BoxCox(x []float64, lambda float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			return nil, fmt.Errorf("value %g at %d: %w", v, i, ErrNonPositive)
		}
		if lambda == 0 {
			out[i] = math.Log(v)
		} else {
			out[i] = (math.Pow(v, lambda) - 1) / lambda
		}
	}
	return out, nil
}

// YeoJohnsonWith applies the Yeo-Johnson transform with the given lambda
func YeoJohnsonWith(x []float64, lambda float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = yeoJohnson(v, lambda)
	}
	return out
}

func yeoJohnson(v, lambda float64) float64 {
	if v >= 0 {
		if lambda == 0 {
			return math.Log1p(v)
		}
		return (math.Pow(v+1, lambda) - 1) / lambda
	}
	if lambda == 2 {
		return -math.Log1p(-v)
	}
	return -(math.Pow(1-v, 2-lambda) - 1) / (2 - lambda)
}

// YeoJohnson applies the Yeo-Johnson transform with the lambda maximizing the
// normal log-likelihood and returns that lambda
func YeoJohnson(x []float64) ([]float64, float64) {
	lambda := YeoJohnsonLambda(x)
	return YeoJohnsonWith(x, lambda), lambda
}

// YeoJohnsonLambda estimates the lambda by golden-section search on [-2, 2]
func YeoJohnsonLambda(x []float64) float64 {
	if len(x) < 2 {
		return 1
	}
	negLLF := func(lambda float64) float64 {
		return -yeoJohnsonLLF(x, lambda)
	}
	return goldenSection(negLLF, yeoJohnsonLambdaMin, yeoJohnsonLambdaMax, goldenTolerance)
}

// yeoJohnsonLLF is the profile log-likelihood of the transformed data
func yeoJohnsonLLF(x []float64, lambda float64) float64 {
	t := YeoJohnsonWith(x, lambda)
	n := float64(len(x))
	mean := stat.Mean(t, nil)
	var ss float64
	for _, v := range t {
		ss += (v - mean) * (v - mean)
	}
	variance := ss / n
	if variance <= 0 {
		return math.Inf(-1)
	}

	var jac float64
	for _, v := range x {
		jac += math.Copysign(math.Log1p(math.Abs(v)), v)
	}
	return -n/2*math.Log(variance) + (lambda-1)*jac
}

// goldenSection minimizes a unimodal f on [a, b]
func goldenSection(f func(float64) float64, a, b, tol float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for math.Abs(b-a) > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

// FeatureVectors extracts the raw feature columns of enriched trips
func FeatureVectors(trips []domain.Trip) map[string][]float64 {
	cols := make(map[string][]float64, len(FeatureColumns))
	for _, name := range FeatureColumns {
		cols[name] = make([]float64, 0, len(trips))
	}
	for _, t := range trips {
		if !t.Enriched() {
			continue
		}
		f := t.Temporal
		cols[FeatureDuration] = append(cols[FeatureDuration], f.TripDurationMinutes)
		cols[FeatureDayOfMonth] = append(cols[FeatureDayOfMonth], float64(f.PickupDayOfMonth))
		cols[FeatureWeekday] = append(cols[FeatureWeekday], float64(f.PickupWeekday))
		cols[FeatureHour] = append(cols[FeatureHour], float64(f.PickupHour))
		cols[FeatureMinute] = append(cols[FeatureMinute], float64(f.PickupMinute))
	}
	return cols
}

// Gaussianized is the feature frame of a route subset together with the
// fitted transform parameters
type Gaussianized struct {
	Frame            dataframe.DataFrame
	BoxCoxLambda     float64
	YeoJohnsonLambda float64
}

// GaussianizedFeatures builds the modelling frame: Box-Cox of the duration,
// Yeo-Johnson of the cube root of the day of month, and the raw weekday, hour
// and minute
func GaussianizedFeatures(subset []domain.Trip, boxCoxLambda float64) (Gaussianized, error) {
	raw := FeatureVectors(subset)
	if len(raw[FeatureDuration]) < 2 {
		return Gaussianized{}, fmt.Errorf("need at least 2 enriched trips, got %d", len(raw[FeatureDuration]))
	}

	duration, err := BoxCox(raw[FeatureDuration], boxCoxLambda)
	if err != nil {
		return Gaussianized{}, fmt.Errorf("failed to transform durations: %w", err)
	}

	cbrt := make([]float64, len(raw[FeatureDayOfMonth]))
	for i, v := range raw[FeatureDayOfMonth] {
		cbrt[i] = math.Cbrt(v)
	}
	day, lambda := YeoJohnson(cbrt)

	frame := dataframe.New(
		series.New(duration, series.Float, FeatureDuration),
		series.New(day, series.Float, FeatureDayOfMonth),
		series.New(raw[FeatureWeekday], series.Float, FeatureWeekday),
		series.New(raw[FeatureHour], series.Float, FeatureHour),
		series.New(raw[FeatureMinute], series.Float, FeatureMinute),
	)
	if frame.Err != nil {
		return Gaussianized{}, fmt.Errorf("failed to build feature frame: %w", frame.Err)
	}

	return Gaussianized{Frame: frame, BoxCoxLambda: boxCoxLambda, YeoJohnsonLambda: lambda}, nil
}

// ScottBins returns the histogram bin count given by Scott's rule. Degenerate
// inputs use a single bin.
func ScottBins(x []float64) int {
	if len(x) < 2 {
		return 1
	}
	std := stat.PopStdDev(x, nil)
	width := 3.49 * std * math.Pow(float64(len(x)), -1.0/3)
	span := floats.Max(x) - floats.Min(x)
	if width <= 0 || span <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(span/width)))
}
