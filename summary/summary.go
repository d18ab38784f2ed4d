// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package summary computes descriptive aggregates over a results table
// and formats them as a text report.
//
// All analysis results carry a list of warnings. These don't prevent
// the report from being produced, but should be shown to the user
// along with it.
package summary

import (
	"fmt"
	"io"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/chronos-gpu/chronosbench/internal/texttab"
	"github.com/chronos-gpu/chronosbench/results"
)

// A Summary aggregates the records of one results table.
type Summary struct {
	// Tests is the number of records summarized.
	Tests int

	// MinMean and MaxMean bound the per-test means. Both are NaN
	// if there are no tests.
	MinMean, MaxMean float64

	// GeoMean is the geometric mean of the per-test means. It is
	// NaN if there are no tests or any mean is not positive.
	GeoMean float64

	// Warnings lists records that look inconsistent.
	Warnings []error
}

// Of summarizes tbl. A nil or empty table yields a Summary with zero
// Tests.
func Of(tbl *results.Table) *Summary {
	s := &Summary{MinMean: math.NaN(), MaxMean: math.NaN(), GeoMean: math.NaN()}
	recs := tbl.Records()
	s.Tests = len(recs)
	if len(recs) == 0 {
		return s
	}

	means := make([]float64, 0, len(recs))
	positive := true
	for _, rec := range recs {
		means = append(means, rec.Mean)
		if !(rec.Mean > 0) {
			positive = false
		}
		s.Warnings = append(s.Warnings, Check(rec)...)
	}

	s.MinMean, s.MaxMean = stats.Bounds(means)
	if positive {
		s.GeoMean = stats.GeoMean(means)
	} else {
		s.Warnings = append(s.Warnings, fmt.Errorf("means must be >0 to compute geomean"))
	}
	return s
}

// Check returns warnings for rec's statistics that cannot all be true
// of one set of measurements. Check does not reject anything; the
// producer is trusted.
func Check(rec results.Record) []error {
	var warns []error
	for _, f := range []struct {
		name string
		v    float64
	}{{"mean", rec.Mean}, {"stddev", rec.StdDev}, {"min", rec.Min}, {"max", rec.Max}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			warns = append(warns, fmt.Errorf("%s: %s is %v", rec.Name, f.name, f.v))
		} else if f.v < 0 {
			warns = append(warns, fmt.Errorf("%s: negative %s %v", rec.Name, f.name, f.v))
		}
	}
	if rec.Min > rec.Max {
		warns = append(warns, fmt.Errorf("%s: min %v exceeds max %v", rec.Name, rec.Min, rec.Max))
	} else if rec.Mean < rec.Min || rec.Mean > rec.Max {
		warns = append(warns, fmt.Errorf("%s: mean %v outside [%v, %v]", rec.Name, rec.Mean, rec.Min, rec.Max))
	}
	return warns
}

// CV returns the coefficient of variation of rec, StdDev/Mean. It is
// NaN when the mean is zero.
func CV(rec results.Record) float64 {
	if rec.Mean == 0 {
		return math.NaN()
	}
	return rec.StdDev / rec.Mean
}

// Write writes a text report of tbl and its summary s to w, followed
// by s's warnings.
func Write(w io.Writer, tbl *results.Table, s *Summary) error {
	var tab texttab.Table
	tab.Row().Cell("test").
		Cell("mean(ms)", texttab.Right).
		Cell("stddev", texttab.Right).
		Cell("min", texttab.Right).
		Cell("max", texttab.Right).
		Cell("cv", texttab.Right).
		Cell("n", texttab.Right)
	for _, rec := range tbl.Records() {
		tab.Row().Cell(rec.Name).
			Cell(ms(rec.Mean), texttab.Right).
			Cell(ms(rec.StdDev), texttab.Right).
			Cell(ms(rec.Min), texttab.Right).
			Cell(ms(rec.Max), texttab.Right).
			Cell(pct(CV(rec)), texttab.Right).
			Cell(fmt.Sprint(rec.Samples), texttab.Right)
	}
	if s.Tests > 1 && !math.IsNaN(s.GeoMean) {
		tab.Row().Cell("geomean").Cell(ms(s.GeoMean), texttab.Right)
	}
	if err := tab.Format(w); err != nil {
		return err
	}
	for _, warn := range s.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warn); err != nil {
			return err
		}
	}
	return nil
}

func ms(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "~"
	}
	return fmt.Sprintf("±%.0f%%", 100*v)
}
