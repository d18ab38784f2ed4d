// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Chronosbench collects the experimental data for the Chronos GPU
// partitioner evaluation.
//
// Usage:
//
//	chronosbench [options]
//
// Chronosbench runs the precompiled benchmark_chronos executable,
// which writes a CSV summary of its measurements, and renders charts
// from that summary. Without -exe, it looks for the executable at
// build/bin/benchmark_chronos and then build/benchmark_chronos, and
// exits with status 1 if neither exists.
//
// Each run writes its files to the results directory, named after the
// time the run started:
//
//	experiment_results/summary_20250102_030405.csv
//	experiment_results/overhead_20250102_030405.png
//
// If the executable fails, chronosbench prints its output and skips
// chart generation. A malformed results file is an error unless
// -lenient is given, in which case malformed rows are reported and
// skipped.
//
// The -charts option selects the charts to render: "overhead" compares
// partition creation and release, and "means" shows the mean of every
// test. The -bench option also writes the results in the Go benchmark
// format, for use with benchstat. The -db option records the run in a
// database, given as driver:dsn, where driver is sqlite3 or mysql.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chronos-gpu/chronosbench/archive"
	"github.com/chronos-gpu/chronosbench/experiment"
	"github.com/chronos-gpu/chronosbench/plots"
)

var exit = os.Exit // replaced during testing

func usage() {
	fmt.Fprintf(os.Stderr, "usage: chronosbench [options]\n")
	fmt.Fprintf(os.Stderr, "options:\n")
	flag.PrintDefaults()
	exit(2)
}

var (
	flagExe     = flag.String("exe", "", "run the benchmark executable at `path` instead of the default locations")
	flagDir     = flag.String("dir", experiment.DefaultResultsDir, "write results into `directory`")
	flagFormat  = flag.String("format", "png", "chart image `format`: png, svg, or pdf")
	flagDPI     = flag.Int("dpi", plots.DefaultDPI, "resolution of png charts")
	flagCharts  = flag.String("charts", "overhead", "comma-separated `kinds` of chart to render: "+strings.Join(plots.Kinds(), ", "))
	flagTimeout = flag.Duration("timeout", 0, "give up on the benchmark executable after `duration` (0 waits forever)")
	flagLenient = flag.Bool("lenient", false, "skip malformed rows of the results file instead of failing")
	flagSummary = flag.Bool("summary", true, "print a summary table of the results")
	flagBench   = flag.Bool("bench", false, "also write the results in Go benchmark format")
	flagDB      = flag.String("db", "", "record the run in the database `driver:dsn`")
)

func main() {
	log.SetPrefix("")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
	}
	exit(run(context.Background()))
}

func run(ctx context.Context) int {
	charts, err := parseCharts(*flagCharts)
	if err != nil {
		log.Print(err)
		return 2
	}
	if !validFormat(*flagFormat) {
		log.Printf("unknown -format %q; want one of %s", *flagFormat, strings.Join(plots.Formats, ", "))
		return 2
	}

	exe := *flagExe
	if exe == "" {
		exe, err = experiment.FindExecutable(log.Printf, experiment.DefaultCandidates()...)
		if err != nil {
			log.Print("Could not find benchmark executable. Please specify the path with -exe.")
			return 1
		}
	}

	e, err := experiment.New(exe,
		experiment.ResultsDir(*flagDir),
		experiment.Timeout(*flagTimeout),
		experiment.Logf(log.Printf),
		experiment.Output(os.Stdout, os.Stderr))
	if err != nil {
		log.Print(err)
		return 1
	}

	p := experiment.Pipeline{
		Charts:  charts,
		Format:  *flagFormat,
		DPI:     *flagDPI,
		Lenient: *flagLenient,
		Bench:   *flagBench,
	}
	if *flagSummary {
		p.Summary = os.Stdout
	}
	if *flagDB != "" {
		db, err := archive.Open(*flagDB)
		if err != nil {
			log.Printf("opening database: %v", err)
			return 1
		}
		defer db.Close()
		p.Archive = db
	}

	if _, err := e.RunAll(ctx, p); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}

// parseCharts returns the registered charts named in the
// comma-separated list kinds.
func parseCharts(kinds string) ([]plots.Chart, error) {
	var charts []plots.Chart
	for _, kind := range strings.Split(kinds, ",") {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			continue
		}
		c, ok := plots.Lookup(kind)
		if !ok {
			return nil, fmt.Errorf("unknown chart %q; want one of %s", kind, strings.Join(plots.Kinds(), ", "))
		}
		charts = append(charts, c)
	}
	if len(charts) == 0 {
		return nil, fmt.Errorf("no charts selected")
	}
	return charts, nil
}

func validFormat(format string) bool {
	for _, f := range plots.Formats {
		if f == format {
			return true
		}
	}
	return false
}
