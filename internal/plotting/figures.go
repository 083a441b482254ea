package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"taxipulse/internal/analysis"
	"taxipulse/internal/config"
	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// Default figure size
const (
	DefaultWidth  = 16 * vg.Centimeter
	DefaultHeight = 10 * vg.Centimeter
)

// ErrNoData is returned when a figure has nothing to draw
var ErrNoData = errors.New("no data to plot")

// Renderer writes figures into the figures directory
type Renderer struct {
	paths  *config.Paths
	ext    string
	width  vg.Length
	height vg.Length
	logger *slog.Logger
}

// NewRenderer creates a renderer writing files with extension ext ("pdf",
// "svg" or "png")
func NewRenderer(paths *config.Paths, ext string, logger *slog.Logger) *Renderer {
	if ext == "" {
		ext = "pdf"
	}
	return &Renderer{
		paths:  paths,
		ext:    ext,
		width:  DefaultWidth,
		height: DefaultHeight,
		logger: infrastructure.WithComponent(logger, "plotting"),
	}
}

// save writes p as name.ext and returns the path
func (r *Renderer) save(p *plot.Plot, name string, width, height vg.Length) (string, error) {
	path := r.paths.FigureFile(name + "." + r.ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create figures directory: %w", err)
	}
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("failed to save figure %s: %w", name, err)
	}
	r.logger.Debug("Figure written", slog.String("path", path))
	return path, nil
}

// PickupsPerZone draws a bar chart of pickups per zone id
func (r *Renderer) PickupsPerZone(stats []domain.ZoneStat, period domain.Period) (string, error) {
	if len(stats) == 0 {
		return "", ErrNoData
	}
	values := make(plotter.Values, len(stats))
	for i, s := range stats {
		values[i] = float64(s.Pickups)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Pickups per zone %04d-%02d", period.Year, period.Month)
	p.X.Label.Text = "zone id"
	p.Y.Label.Text = "pickups"

	bars, err := plotter.NewBarChart(values, vg.Points(1))
	if err != nil {
		return "", err
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	bars.XMin = float64(stats[0].Zone)
	p.Add(bars)

	return r.save(p, "pickups-per-zone", r.width, r.height)
}

// TravelTimeFrom draws the mean travel time from one pickup zone to every
// dropoff zone
func (r *Renderer) TravelTimeFrom(averages []domain.RouteAverage) (string, error) {
	if len(averages) == 0 {
		return "", ErrNoData
	}
	xys := make(plotter.XYs, len(averages))
	for i, a := range averages {
		xys[i].X = float64(a.DropoffZone)
		xys[i].Y = a.MeanMinutes
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Average travel time from zone %d", averages[0].PickupZone)
	p.X.Label.Text = "dropoff zone id"
	p.Y.Label.Text = "travel time (min)"

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return "", err
	}
	s.GlyphStyle.Color = plotutil.Color(1)
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s, plotter.NewGrid())

	return r.save(p, fmt.Sprintf("average-travel-time-from-%d", averages[0].PickupZone), r.width, r.height)
}

// RidesOverTime draws one line of daily rides per fleet and one of the daily
// market share, as two files
func (r *Renderer) RidesOverTime(days []analysis.DailyRides, period domain.Period) ([]string, error) {
	if len(days) == 0 {
		return nil, ErrNoData
	}

	counts := plot.New()
	counts.Title.Text = "Taxi rides by provider per day"
	counts.X.Label.Text = "day of month"
	counts.Y.Label.Text = "amount of rides"

	share := plot.New()
	share.Title.Text = "Market share of taxi providers per day"
	share.X.Label.Text = "day of month"
	share.Y.Label.Text = "ratio of market share"
	share.Y.Min, share.Y.Max = 0, 1

	for i, fleet := range domain.AllFleets {
		var countXY, shareXY plotter.XYs
		for d, day := range days {
			countXY = append(countXY, plotter.XY{X: float64(d + 1), Y: float64(day.Counts[fleet])})
			if s := day.Share(fleet); !math.IsNaN(s) {
				shareXY = append(shareXY, plotter.XY{X: float64(d + 1), Y: s})
			}
		}
		if err := addLine(counts, fleet.DisplayName(), countXY, i); err != nil {
			return nil, err
		}
		if err := addLine(share, fleet.DisplayName(), shareXY, i); err != nil {
			return nil, err
		}
	}

	stem := fmt.Sprintf("taxi-rides-over-time-%04d-%02d", period.Year, period.Month)
	countsPath, err := r.save(counts, stem, r.width, r.height)
	if err != nil {
		return nil, err
	}
	sharePath, err := r.save(share, stem+"-share", r.width, r.height)
	if err != nil {
		return nil, err
	}
	return []string{countsPath, sharePath}, nil
}

func addLine(p *plot.Plot, name string, xys plotter.XYs, i int) error {
	if len(xys) == 0 {
		return nil
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(i)
	l.Dashes = plotutil.Dashes(i)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// WeekdayProfile draws the mean travel time per hour bin, one line per
// weekday
func (r *Renderer) WeekdayProfile(profile analysis.WeekdayProfile, title string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time bin with the hour of the day"
	p.Y.Label.Text = "travel time (min)"
	p.Legend.Top = true

	drawn := 0
	for wd, name := range analysis.Weekdays {
		var xys plotter.XYs
		for h, m := range profile.Means[wd] {
			if !math.IsNaN(m) {
				xys = append(xys, plotter.XY{X: float64(h), Y: m})
			}
		}
		if err := addLine(p, name, xys, wd); err != nil {
			return "", err
		}
		drawn += len(xys)
	}
	if drawn == 0 {
		return "", ErrNoData
	}

	ticks := make([]plot.Tick, 0, len(profile.Labels)/3+1)
	for h := 0; h < len(profile.Labels); h += 3 {
		ticks = append(ticks, plot.Tick{Value: float64(h), Label: profile.Labels[h]})
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return r.save(p, "travel-time-by-weekday", r.width, r.height)
}

// correlationGrid adapts a correlation matrix to plotter.GridXYZ
type correlationGrid struct {
	corr analysis.Correlation
}

func (g correlationGrid) Dims() (c, r int) {
	n := len(g.corr.Columns)
	return n, n
}

func (g correlationGrid) Z(c, r int) float64 { return g.corr.Matrix.At(r, c) }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap draws the correlation matrix with one label per cell
func (r *Renderer) CorrelationHeatmap(corr analysis.Correlation, title string) (string, error) {
	n := len(corr.Columns)
	if n == 0 {
		return "", ErrNoData
	}

	grid := correlationGrid{corr: corr}
	heat := plotter.NewHeatMap(grid, palette.Heat(20, 1))
	heat.Min, heat.Max = -1, 1
	heat.NaN = color.Gray{Y: 200}

	var cells plotter.XYLabels
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := corr.Matrix.At(row, col)
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(col), Y: float64(row)})
			cells.Labels = append(cells.Labels, strconv.FormatFloat(v, 'f', 1, 64))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(heat, labels)

	ticks := make([]plot.Tick, n)
	for i, name := range corr.Columns {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	side := vg.Length(n)*2*vg.Centimeter + 6*vg.Centimeter
	return r.save(p, "correlations-gaussianized", side, side)
}

// Histogram draws the distribution of values with bins buckets. Non-positive
// bins use Scott's rule.
func (r *Renderer) Histogram(values []float64, bins int, name, xLabel string) (string, error) {
	if len(values) == 0 {
		return "", ErrNoData
	}
	if bins <= 0 {
		bins = analysis.ScottBins(values)
	}

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return "", err
	}
	h.FillColor = plotutil.Color(2)

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "count"
	p.Add(h)

	return r.save(p, name, r.width/2, r.height/2)
}

// FeatureHistograms draws one Scott-binned histogram per column, prefixed
// with stage ("raw" or "gaussianized")
func (r *Renderer) FeatureHistograms(columns map[string][]float64, order []string, stage string) ([]string, error) {
	var paths []string
	for _, name := range order {
		values := columns[name]
		if len(values) == 0 {
			continue
		}
		path, err := r.Histogram(values, 0, fmt.Sprintf("%s-%s", stage, name), name)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RegressionDiagnostics draws true vs predicted values, the raw residual
// histogram and the weight histogram of one model
func (r *Renderer) RegressionDiagnostics(name string, truth []float64, ev analysis.Evaluation, target string) ([]string, error) {
	if len(truth) == 0 || len(truth) != len(ev.Predicted) {
		return nil, ErrNoData
	}

	xys := make(plotter.XYs, len(truth))
	for i := range truth {
		xys[i] = plotter.XY{X: truth[i], Y: ev.Predicted[i]}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(1)

	p := plot.New()
	p.Title.Text = "True vs. Predicted"
	p.X.Label.Text = "True " + target
	p.Y.Label.Text = "Predicted " + target
	p.Add(s)

	scatterPath, err := r.save(p, name+"-true-vs-predicted", r.width/2, r.width/2)
	if err != nil {
		return nil, err
	}
	residualPath, err := r.Histogram(ev.Residuals, 30, name+"-residuals", "(true-predicted)")
	if err != nil {
		return nil, err
	}
	weightPath, err := r.Histogram(ev.Weights, 0, name+"-weights", "weight")
	if err != nil {
		return nil, err
	}
	return []string{scatterPath, residualPath, weightPath}, nil
}
