// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plots renders charts of benchmark results.
//
// Each kind of chart is a Chart: a routine that turns a results.Table
// into a Figure of one or more plots. Charts only read the table, and
// they tolerate absent tests by drawing the zero record in their
// place, so every chart renders even from an empty table. New kinds
// are added by implementing Chart and calling Register.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/chronos-gpu/chronosbench/results"
)

// A Figure is a grid of plots drawn onto one image.
type Figure struct {
	// Plots is indexed by row, then column. Every row must have
	// the same number of plots.
	Plots [][]*plot.Plot

	Width, Height vg.Length
}

// A Chart produces a Figure from a results table.
type Chart interface {
	// Kind names the chart. It is used as the prefix of the
	// output file name.
	Kind() string

	// Figure builds the chart's plots from tbl.
	Figure(tbl *results.Table) (*Figure, error)
}

var registry = make(map[string]Chart)

// Register makes c available through Lookup. It panics if a chart of
// the same kind is already registered.
func Register(c Chart) {
	kind := c.Kind()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("plots: chart %q registered twice", kind))
	}
	registry[kind] = c
}

// Lookup returns the registered chart of the given kind.
func Lookup(kind string) (Chart, bool) {
	c, ok := registry[kind]
	return c, ok
}

// Kinds returns the registered chart kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func init() {
	Register(DefaultOverhead)
	Register(Means{Color: skyBlue})
}

var (
	skyBlue    = color.NRGBA{0x87, 0xCE, 0xEB, 0xFF}
	lightCoral = color.NRGBA{0xF0, 0x80, 0x80, 0xFF}
	gridGray   = color.NRGBA{0xB0, 0xB0, 0xB0, 0x99}
)

const (
	barWidth = vg.Length(60)
	capWidth = vg.Length(10) // 5pt on each side of the bar center
)

// A Category is one named test drawn by Overhead.
type Category struct {
	Name  string
	Color color.Color
}

// Overhead draws one subplot per category, side by side. Each subplot
// shows the category's mean, min and max as bars, each with the
// standard deviation as a symmetric error bar.
type Overhead struct {
	Categories []Category
}

// DefaultOverhead compares partition creation and release.
var DefaultOverhead = Overhead{
	Categories: []Category{
		{"Partition Creation", skyBlue},
		{"Partition Release", lightCoral},
	},
}

func (Overhead) Kind() string { return "overhead" }

func (o Overhead) Figure(tbl *results.Table) (*Figure, error) {
	if len(o.Categories) == 0 {
		return nil, fmt.Errorf("overhead chart has no categories")
	}
	row := make([]*plot.Plot, 0, len(o.Categories))
	for _, c := range o.Categories {
		p, err := overheadPlot(tbl.Get(c.Name), c.Color)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		row = append(row, p)
	}
	return &Figure{
		Plots:  [][]*plot.Plot{row},
		Width:  vg.Length(len(row)) * 6 * vg.Inch,
		Height: 5 * vg.Inch,
	}, nil
}

func overheadPlot(rec results.Record, clr color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = rec.Name + " Overhead"
	p.Y.Label.Text = "Time (ms)"
	p.Add(dashedGrid())

	bars, errs, err := statBars(rec, clr)
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	if errs != nil {
		p.Add(errs)
	}
	p.NominalX("Mean", "Min", "Max")
	fixRange(p)
	return p, nil
}

// statBars returns bars for rec's mean, min and max. errs is nil when
// rec has no standard deviation to show.
func statBars(rec results.Record, clr color.Color) (bars *plotter.BarChart, errs *plotter.YErrorBars, err error) {
	heights := plotter.Values{finite(rec.Mean), finite(rec.Min), finite(rec.Max)}
	bars, err = plotter.NewBarChart(heights, barWidth)
	if err != nil {
		return nil, nil, err
	}
	bars.Color = clr

	sd := finite(rec.StdDev)
	if sd == 0 {
		return bars, nil, nil
	}
	var pts errorPoints
	for i, h := range heights {
		pts.XYs = append(pts.XYs, plotter.XY{X: float64(i), Y: h})
		pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{sd, sd})
	}
	errs, err = newErrorBars(pts)
	if err != nil {
		return nil, nil, err
	}
	return bars, errs, nil
}

// Means draws every test's mean in table order, with standard
// deviation error bars.
type Means struct {
	Color color.Color
}

func (Means) Kind() string { return "means" }

func (m Means) Figure(tbl *results.Table) (*Figure, error) {
	p := plot.New()
	p.Title.Text = "Mean time per test"
	p.Y.Label.Text = "Time (ms)"
	p.Add(dashedGrid())

	recs := tbl.Records()
	if len(recs) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		bars, errs, err := meanBars(recs, m.Color)
		if err != nil {
			return nil, err
		}
		p.Add(bars)
		if errs != nil {
			p.Add(errs)
		}
		names := make([]string, len(recs))
		for i, rec := range recs {
			names[i] = rec.Name
		}
		p.NominalX(names...)
		p.X.Tick.Label.Rotation = -math.Pi / 8
		p.X.Tick.Label.XAlign = draw.XLeft
		p.X.Tick.Label.YAlign = draw.YTop
		fixRange(p)
	}

	width := vg.Length(len(recs)) * 1.2 * vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	return &Figure{
		Plots:  [][]*plot.Plot{{p}},
		Width:  width,
		Height: 5 * vg.Inch,
	}, nil
}

// meanBars returns one bar per record. Error bars are drawn only for
// records with a non-zero standard deviation; errs is nil if there are
// none.
func meanBars(recs []results.Record, clr color.Color) (bars *plotter.BarChart, errs *plotter.YErrorBars, err error) {
	heights := make(plotter.Values, len(recs))
	var pts errorPoints
	for i, rec := range recs {
		heights[i] = finite(rec.Mean)
		if sd := finite(rec.StdDev); sd != 0 {
			pts.XYs = append(pts.XYs, plotter.XY{X: float64(i), Y: heights[i]})
			pts.YErrors = append(pts.YErrors, struct{ Low, High float64 }{sd, sd})
		}
	}
	bars, err = plotter.NewBarChart(heights, barWidth)
	if err != nil {
		return nil, nil, err
	}
	if clr != nil {
		bars.Color = clr
	}
	if len(pts.XYs) == 0 {
		return bars, nil, nil
	}
	errs, err = newErrorBars(pts)
	if err != nil {
		return nil, nil, err
	}
	return bars, errs, nil
}

type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

func newErrorBars(pts errorPoints) (*plotter.YErrorBars, error) {
	errs, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return nil, err
	}
	errs.CapWidth = capWidth
	return errs, nil
}

func dashedGrid() *plotter.Grid {
	g := plotter.NewGrid()
	for _, ls := range []*draw.LineStyle{&g.Vertical, &g.Horizontal} {
		ls.Color = gridGray
		ls.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	return g
}

// fixRange keeps the y axis from collapsing when every bar is zero.
func fixRange(p *plot.Plot) {
	if p.Y.Max <= p.Y.Min {
		p.Y.Max = p.Y.Min + 1
	}
}

// finite maps NaN and infinities, which the plotters reject, to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
