// Package charts renders dashboard chart groups as SVG or PNG line charts.
package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/errgroup"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Format is an image encoding
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrNoData is returned for a chart without a single point
var ErrNoData = errors.New("chart has no data points")

// maxTicks bounds the quarter labels on the x axis
const maxTicks = 10

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorAlternateGray,
}

// ParseFormat accepts "svg" or "png", case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType returns the MIME type of the encoding
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options sets the image dimensions in pixels
type Options struct {
	Width  int
	Height int
}

// Render draws one chart group to w
func Render(w io.Writer, cs domain.ChartSeries, format Format, opts Options) error {
	ch, err := build(cs, opts)
	if err != nil {
		return err
	}

	provider := chart.SVG
	if format == FormatPNG {
		provider = chart.PNG
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart %s: %w", format, cs.Group.ID, err)
	}
	return nil
}

// RenderAll draws every group concurrently. The result is in input order.
func RenderAll(ctx context.Context, groups []domain.ChartSeries, format Format, opts Options) ([][]byte, error) {
	out := make([][]byte, len(groups))
	g, ctx := errgroup.WithContext(ctx)

	for i, cs := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := Render(&buf, cs, format, opts); err != nil {
				return err
			}
			out[i] = buf.Bytes()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func build(cs domain.ChartSeries, opts Options) (*chart.Chart, error) {
	var periods []time.Time
	minY, maxY := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, len(cs.Series))

	for i, s := range cs.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j] = p.Period
			ys[j] = p.Value
			minY = math.Min(minY, p.Value)
			maxY = math.Max(maxY, p.Value)
		}
		if len(xs) > len(periods) {
			periods = xs
		}

		// A single point has a zero-width x range, which go-chart rejects
		if len(xs) == 1 {
			xs = append(xs, xs[0].AddDate(0, 3, 0))
			ys = append(ys, ys[0])
		}

		color := palette[i%len(palette)]
		series = append(series, chart.TimeSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    2,
			},
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("chart %s: %w", cs.Group.ID, ErrNoData)
	}

	ch := &chart.Chart{
		Title:      cs.Group.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Quarter",
			Ticks: quarterTicks(periods),
		},
		YAxis: chart.YAxis{
			Name:           cs.Group.YLabel,
			ValueFormatter: axisValue,
		},
		Series: series,
	}

	// A flat chart has a zero-height y range, which go-chart also rejects
	if minY == maxY {
		pad := math.Max(math.Abs(minY)*0.05, 1)
		ch.YAxis.Range = &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
	}

	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(ch)}
	}

	return ch, nil
}

// quarterTicks labels at most maxTicks evenly spaced periods
func quarterTicks(periods []time.Time) []chart.Tick {
	if len(periods) == 0 {
		return nil
	}

	step := (len(periods) + maxTicks - 1) / maxTicks
	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < len(periods); i += step {
		ticks = append(ticks, chart.Tick{
			Value: chart.TimeToFloat64(periods[i]),
			Label: dataprocessing.QuarterLabel(periods[i]),
		})
	}
	if last := periods[len(periods)-1]; (len(periods)-1)%step != 0 {
		ticks = append(ticks, chart.Tick{
			Value: chart.TimeToFloat64(last),
			Label: dataprocessing.QuarterLabel(last),
		})
	}
	return ticks
}

func axisValue(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}
