// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package results reads and writes the CSV summary produced by the
// benchmark_chronos measurement executable.
//
// A summary file starts with a single header row, which is ignored,
// followed by one row per test:
//
//	test_name,mean,stddev,min,max,sample_count
//
// Durations are in milliseconds. The parsed form is a Table keyed by
// test name. Lookups of names that are not in a Table never fail; they
// return the zero Record for that name, so that consumers such as
// chart renderers can draw empty categories instead of failing.
package results

// A Record is the summary of a single named test.
type Record struct {
	Name string

	// Mean, StdDev, Min and Max are durations in milliseconds.
	// The producer guarantees Min <= Mean <= Max; this package
	// does not check it.
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Samples is the number of measurements the statistics were
	// computed over. It is carried along but not used for charting.
	Samples int
}

// Zero returns the record used in place of a test that is absent from
// a Table. All of its statistics are zero.
func Zero(name string) Record {
	return Record{Name: name}
}

// IsZero reports whether all of r's statistics are zero.
func (r Record) IsZero() bool {
	return r.Mean == 0 && r.StdDev == 0 && r.Min == 0 && r.Max == 0 && r.Samples == 0
}

// A Table maps test names to their records. It remembers the order in
// which names were first added.
//
// The zero Table is empty and ready to use. A nil *Table behaves like
// an empty Table for all read methods.
type Table struct {
	recs  map[string]Record
	order []string
}

// Add adds rec to t. If t already has a record named rec.Name, rec
// replaces it but keeps the original position.
func (t *Table) Add(rec Record) {
	if t.recs == nil {
		t.recs = make(map[string]Record)
	}
	if _, ok := t.recs[rec.Name]; !ok {
		t.order = append(t.order, rec.Name)
	}
	t.recs[rec.Name] = rec
}

// Lookup returns the record named name and whether it is present.
func (t *Table) Lookup(name string) (Record, bool) {
	if t == nil {
		return Zero(name), false
	}
	rec, ok := t.recs[name]
	if !ok {
		return Zero(name), false
	}
	return rec, true
}

// Get returns the record named name, or Zero(name) if t has no such
// record. It does not modify t.
func (t *Table) Get(name string) Record {
	rec, _ := t.Lookup(name)
	return rec
}

// Len returns the number of records in t.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Names returns the names of t's records in the order they were added.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Records returns t's records in the order they were added.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	recs := make([]Record, 0, len(t.order))
	for _, name := range t.order {
		recs = append(recs, t.recs[name])
	}
	return recs
}
