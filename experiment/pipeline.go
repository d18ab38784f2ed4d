// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chronos-gpu/chronosbench/archive"
	"github.com/chronos-gpu/chronosbench/benchfmt"
	"github.com/chronos-gpu/chronosbench/plots"
	"github.com/chronos-gpu/chronosbench/results"
	"github.com/chronos-gpu/chronosbench/summary"
)

// A Pipeline configures what RunAll does with a successful run's
// results.
type Pipeline struct {
	// Charts are rendered in order. If nil, only the overhead
	// chart is rendered.
	Charts []plots.Chart

	// Format and DPI configure the image files; see plots.Renderer.
	Format string
	DPI    int

	// Lenient skips malformed rows of the results file instead of
	// abandoning the run.
	Lenient bool

	// Summary, if not nil, receives a text report of the results.
	Summary io.Writer

	// Bench writes the results in Go benchmark format next to the
	// CSV file, for use with benchstat.
	Bench bool

	// Archive, if not nil, records the run.
	Archive *archive.DB
}

// A Report describes what RunAll did.
type Report struct {
	Invocation *Invocation

	// ProcessError is set if the executable failed, in which case
	// nothing else was done.
	ProcessError *ProcessError

	Table *results.Table

	// Skipped lists malformed rows dropped in lenient mode.
	Skipped []*results.SyntaxError

	// Artifacts lists the files written after parsing, in order.
	Artifacts []string

	// RunID is the archive's ID for the run, if archived.
	RunID int64
}

// RunAll runs the executable, then parses its results and renders
// p.Charts from them.
//
// A failure of the executable is not an error: RunAll skips
// everything after it and returns a Report with ProcessError set.
// Errors parsing the results, rendering, or writing any other output
// abort RunAll and are returned.
func (e *Experiment) RunAll(ctx context.Context, p Pipeline) (*Report, error) {
	e.logf("=== Chronos Experimental Evaluation ===")
	e.logf("Timestamp: %s", e.timestamp)

	rep := new(Report)
	inv, err := e.Run(ctx)
	rep.Invocation = inv
	if err != nil {
		var perr *ProcessError
		if !errors.As(err, &perr) {
			return rep, err
		}
		rep.ProcessError = perr
		e.logf("No benchmark results. Skipping plot generation.")
		e.logf("=== Experiment Complete ===")
		return rep, nil
	}

	if p.Lenient {
		rep.Table, rep.Skipped, err = results.ParseFileLenient(inv.CSVPath)
		for _, serr := range rep.Skipped {
			e.logf("Skipping malformed row: %v", serr)
		}
	} else {
		rep.Table, err = results.ParseFile(inv.CSVPath)
	}
	if err != nil {
		return rep, err
	}

	if p.Summary != nil {
		if err := summary.Write(p.Summary, rep.Table, summary.Of(rep.Table)); err != nil {
			return rep, err
		}
	}

	e.logf("Generating plots from benchmark data...")
	charts := p.Charts
	if charts == nil {
		charts = []plots.Chart{plots.DefaultOverhead}
	}
	r := &plots.Renderer{Dir: e.dir, Timestamp: e.timestamp, Format: p.Format, DPI: p.DPI}
	for _, c := range charts {
		path, err := r.Render(rep.Table, c)
		if err != nil {
			return rep, err
		}
		rep.Artifacts = append(rep.Artifacts, path)
		e.logf("%s plot generated: %s", c.Kind(), path)
	}

	if p.Bench {
		path, err := e.writeBench(rep.Table)
		if err != nil {
			return rep, err
		}
		rep.Artifacts = append(rep.Artifacts, path)
		e.logf("Benchmark format results saved to %s", path)
	}

	if p.Archive != nil {
		rep.RunID, err = p.Archive.InsertRun(ctx, e.timestamp, e.exe, rep.Table)
		if err != nil {
			return rep, fmt.Errorf("archiving run: %w", err)
		}
		e.logf("Run archived with ID %d", rep.RunID)
	}

	e.logf("=== Experiment Complete ===")
	return rep, nil
}

func (e *Experiment) writeBench(tbl *results.Table) (path string, err error) {
	path = e.file("summary", "bench")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	cfg := []benchfmt.Config{
		{Key: "timestamp", Value: e.timestamp},
		{Key: "executable", Value: e.exe},
	}
	if err := benchfmt.NewWriter(f).Write(cfg, tbl); err != nil {
		return "", err
	}
	return path, nil
}
