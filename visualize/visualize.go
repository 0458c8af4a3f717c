// Package visualize はデータ探索とモデル評価の図をファイルに描画します。
//
// 描画には gonum/plot を使い、形式はファイル拡張子（png, svg, pdf）で決まります。
// 各関数は描画前に列の存在と型を検証し、書き出したファイルのパスを返します。
package visualize

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/explore"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// DefaultBins is the histogram bin count used when a non-positive count is given.
const DefaultBins = 10

// Renderer writes plots into Dir.
type Renderer struct {
	Dir    string
	Format string
	// Width と Height は図の大きさ（既定 8x5 インチ）
	Width, Height vg.Length

	logger log.Logger
}

// NewRenderer creates a Renderer writing format files into dir.
// An empty format selects png.
func NewRenderer(dir, format string) (*Renderer, error) {
	if format == "" {
		format = FormatPNG
	}
	format = strings.ToLower(format)
	switch format {
	case FormatPNG, FormatSVG, FormatPDF:
	default:
		return nil, errors.NewValidationError("plot_format", "must be one of png, svg, pdf", format)
	}
	if dir == "" {
		dir = "."
	}
	return &Renderer{
		Dir:    dir,
		Format: format,
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
		logger: log.GetLoggerWithName("visualize"),
	}, nil
}

// fileName は図の種類と列名から安全なファイル名を作る
func (r *Renderer) fileName(parts ...string) string {
	name := strings.Join(parts, "_")
	name = strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-' || c == '_' {
			return c
		}
		return '_'
	}, name)
	return filepath.Join(r.Dir, name+"."+r.Format)
}

func (r *Renderer) save(p *plot.Plot, path string) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create plot directory %s", r.Dir)
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return "", errors.Wrapf(err, "save plot %s", path)
	}
	r.logger.Debug("plot written", log.PathKey, path, log.OperationKey, log.OperationVisualize)
	return path, nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func column(op string, f *dataframe.Frame, name string, kind dataframe.Kind) (*dataframe.Series, error) {
	if f == nil {
		return nil, errors.Wrap(errors.ErrNoData, op)
	}
	s, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if s.Kind != kind {
		return nil, errors.NewColumnTypeError(op, name, kind.String(), s.Kind.String())
	}
	return s, nil
}

// Histogram draws the distribution of a numeric column. Missing values are
// dropped; bins <= 0 selects DefaultBins.
func (r *Renderer) Histogram(f *dataframe.Frame, col string, bins int) (string, error) {
	s, err := column("visualize.Histogram", f, col, dataframe.Numeric)
	if err != nil {
		return "", err
	}
	values := s.NonNullFloats()
	if len(values) == 0 {
		return "", errors.NewModelError("visualize.Histogram", fmt.Sprintf("column '%s' has no values", col), errors.ErrEmptyData)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return "", errors.Wrap(err, "visualize.Histogram")
	}
	h.FillColor = color.RGBA{R: 76, G: 114, B: 176, A: 255}

	p := newPlot(fmt.Sprintf("Distribution of %s", col), col, "Frequency")
	p.Add(h)
	return r.save(p, r.fileName("hist", col))
}

// Bar draws the count of every category of a categorical column, most
// frequent first. Missing entries are counted as explore.NotInformed.
func (r *Renderer) Bar(f *dataframe.Frame, col string) (string, error) {
	if _, err := column("visualize.Bar", f, col, dataframe.Categorical); err != nil {
		return "", err
	}
	counts, err := explore.ValueCounts(f, col)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", errors.NewModelError("visualize.Bar", fmt.Sprintf("column '%s' has no rows", col), errors.ErrEmptyData)
	}

	heights := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		heights[i] = float64(c.Count)
		labels[i] = c.Value
	}
	bars, err := plotter.NewBarChart(heights, vg.Points(20))
	if err != nil {
		return "", errors.Wrap(err, "visualize.Bar")
	}
	bars.Color = color.RGBA{R: 221, G: 132, B: 82, A: 255}
	bars.LineStyle.Width = 0

	p := newPlot(fmt.Sprintf("Count of each %s", col), col, "Count")
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return r.save(p, r.fileName("bar", col))
}

// pairs は両方が欠損でない行の組を返す
func pairs(x, y []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
	}
	return xys
}

// Scatter draws y against x, skipping rows where either is missing.
func (r *Renderer) Scatter(f *dataframe.Frame, x, y string) (string, error) {
	xs, err := column("visualize.Scatter", f, x, dataframe.Numeric)
	if err != nil {
		return "", err
	}
	ys, err := column("visualize.Scatter", f, y, dataframe.Numeric)
	if err != nil {
		return "", err
	}
	xys := pairs(xs.Float, ys.Float)
	if len(xys) == 0 {
		return "", errors.NewModelError("visualize.Scatter", "no complete rows", errors.ErrEmptyData)
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return "", errors.Wrap(err, "visualize.Scatter")
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}

	p := newPlot(fmt.Sprintf("%s vs %s", y, x), x, y)
	p.Add(sc)
	return r.save(p, r.fileName("scatter", x, y))
}

// PredictedVsActual draws predictions against true values with a dashed red
// identity line spanning the range of yTrue.
func (r *Renderer) PredictedVsActual(yTrue, yPred []float64) (string, error) {
	if len(yTrue) == 0 {
		return "", errors.NewModelError("visualize.PredictedVsActual", "empty data", errors.ErrEmptyData)
	}
	if len(yPred) != len(yTrue) {
		return "", errors.NewDimensionError("visualize.PredictedVsActual", len(yTrue), len(yPred), 0)
	}
	xys := pairs(yTrue, yPred)
	if len(xys) == 0 {
		return "", errors.NewModelError("visualize.PredictedVsActual", "no finite pairs", errors.ErrEmptyData)
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return "", errors.Wrap(err, "visualize.PredictedVsActual")
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = color.RGBA{R: 76, G: 114, B: 176, A: 153}

	xs := make([]float64, len(xys))
	for i, p := range xys {
		xs[i] = p.X
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	ident, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", errors.Wrap(err, "visualize.PredictedVsActual")
	}
	ident.LineStyle.Color = color.RGBA{R: 255, A: 255}
	ident.LineStyle.Width = vg.Points(2)
	ident.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p := newPlot("Actual vs predicted values", "Actual", "Predicted")
	p.Add(sc, ident)
	return r.save(p, r.fileName("predicted_vs_actual"))
}
