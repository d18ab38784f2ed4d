// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package results

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Header is the header row written by Writer. It matches the header
// written by benchmark_chronos.
var Header = []string{"Test Name", "Mean (ms)", "StdDev (ms)", "Min (ms)", "Max (ms)", "Samples"}

// A Writer writes records in the results CSV format.
type Writer struct {
	cw     *csv.Writer
	header bool
	row    [numFields]string
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Write writes rec, preceded by the header row if this is the first
// call. Floating-point values are written with the fewest digits that
// read back exactly.
func (w *Writer) Write(rec Record) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.row[0] = rec.Name
	for i, v := range [...]float64{rec.Mean, rec.StdDev, rec.Min, rec.Max} {
		w.row[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	w.row[5] = strconv.Itoa(rec.Samples)
	return w.cw.Write(w.row[:])
}

// WriteTable writes every record of t in order.
func (w *Writer) WriteTable(t *Table) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	for _, rec := range t.Records() {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	return w.cw.Write(Header)
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
