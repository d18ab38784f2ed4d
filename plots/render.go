// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plots

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/chronos-gpu/chronosbench/results"
)

// Formats lists the output formats a Renderer supports.
var Formats = []string{"png", "svg", "pdf"}

// DefaultDPI is the resolution of PNG output when Renderer.DPI is 0.
const DefaultDPI = 300

// A Renderer writes charts as image files named
// <kind>_<timestamp>.<format> in a directory.
type Renderer struct {
	Dir       string
	Timestamp string

	// Format is one of Formats. The empty string means "png".
	Format string

	// DPI applies to PNG output only.
	DPI int
}

func (r *Renderer) format() string {
	if r.Format == "" {
		return "png"
	}
	return r.Format
}

// Path returns the file that Render writes for a chart of the given
// kind.
func (r *Renderer) Path(kind string) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%s.%s", kind, r.Timestamp, r.format()))
}

// Render draws chart c from tbl and writes it to r.Path(c.Kind()). It
// returns the path written. The file is closed on every path, and
// removed if it could not be written completely.
func (r *Renderer) Render(tbl *results.Table, c Chart) (path string, err error) {
	fig, err := c.Figure(tbl)
	if err != nil {
		return "", fmt.Errorf("%s chart: %w", c.Kind(), err)
	}
	can, err := r.canvas(fig.Width, fig.Height)
	if err != nil {
		return "", err
	}
	drawFigure(fig, draw.New(can))

	name := r.Path(c.Kind())
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(name)
			path = ""
		}
	}()
	if _, err := can.WriteTo(f); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

func (r *Renderer) canvas(w, h vg.Length) (vg.CanvasWriterTo, error) {
	switch r.format() {
	case "png":
		dpi := r.DPI
		if dpi <= 0 {
			dpi = DefaultDPI
		}
		return vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}, nil
	case "svg":
		return vgsvg.New(w, h), nil
	case "pdf":
		return vgpdf.New(w, h), nil
	}
	return nil, fmt.Errorf("unknown image format %q (want one of %v)", r.Format, Formats)
}

func drawFigure(fig *Figure, dc draw.Canvas) {
	rows := len(fig.Plots)
	cols := 0
	if rows > 0 {
		cols = len(fig.Plots[0])
	}
	if rows == 0 || cols == 0 {
		return
	}
	if rows == 1 && cols == 1 {
		fig.Plots[0][0].Draw(dc)
		return
	}
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 10,
		PadY:      vg.Millimeter * 10,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}
	canvases := plot.Align(fig.Plots, tiles, dc)
	for j, row := range fig.Plots {
		for i, p := range row {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}
}
