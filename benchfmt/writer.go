// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfmt writes results tables in the Go benchmark format,
// so that experiment runs can be compared with benchstat.
//
// The format is documented at
// https://golang.org/design/14313-benchmark-format.
//
// Each record becomes one benchmark line. The mean is reported as
// ns/op; the standard deviation, minimum and maximum are reported as
// additional units so that benchstat summarizes them separately:
//
//	BenchmarkPartition_Creation 50 1200000 ns/op 100000 sd-ns/op 1000000 min-ns/op 1500000 max-ns/op
package benchfmt

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chronos-gpu/chronosbench/results"
)

// A Config is a single file configuration line, "key: value".
type Config struct {
	Key, Value string
}

// A Writer writes the Go benchmark format.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer

	first      bool
	fileConfig map[string]string
	order      []string
}

// NewWriter returns a writer that writes Go benchmark results to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, first: true, fileConfig: make(map[string]string)}
}

// Write writes one benchmark line per record of tbl. If cfg differs
// from the configuration of the previous call, it first emits the
// configuration lines that changed. Keys absent from cfg are deleted.
func (w *Writer) Write(cfg []Config, tbl *results.Table) error {
	for _, c := range cfg {
		if !validKey(c.Key) {
			return fmt.Errorf("invalid configuration key %q", c.Key)
		}
	}
	if w.configChanged(cfg) {
		w.writeFileConfig(cfg)
	}
	for _, rec := range tbl.Records() {
		w.writeRecord(rec)
	}

	// Writes to the buffer can't fail, so we only have to check
	// if this fails.
	_, err := w.w.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

func (w *Writer) configChanged(cfg []Config) bool {
	if len(cfg) != len(w.fileConfig) {
		return true
	}
	for _, c := range cfg {
		if have, ok := w.fileConfig[c.Key]; !ok || have != c.Value {
			return true
		}
	}
	return false
}

func (w *Writer) writeFileConfig(cfg []Config) {
	if !w.first {
		// Configuration blocks after results get an extra blank.
		w.buf.WriteByte('\n')
	}
	w.first = false

	want := make(map[string]string, len(cfg))
	for _, c := range cfg {
		want[c.Key] = c.Value
	}

	// Walk keys we know to find changes and deletions.
	for i := 0; i < len(w.order); i++ {
		key := w.order[i]
		val, ok := want[key]
		if !ok {
			fmt.Fprintf(&w.buf, "%s:\n", key)
			delete(w.fileConfig, key)
			w.order = append(w.order[:i], w.order[i+1:]...)
			i--
			continue
		}
		if w.fileConfig[key] != val {
			fmt.Fprintf(&w.buf, "%s: %s\n", key, val)
			w.fileConfig[key] = val
		}
	}

	// Find new keys.
	for _, c := range cfg {
		if _, ok := w.fileConfig[c.Key]; ok {
			continue
		}
		fmt.Fprintf(&w.buf, "%s: %s\n", c.Key, c.Value)
		w.fileConfig[c.Key] = c.Value
		w.order = append(w.order, c.Key)
	}

	w.buf.WriteByte('\n')
}

func (w *Writer) writeRecord(rec results.Record) {
	iters := rec.Samples
	if iters <= 0 {
		iters = 1
	}
	fmt.Fprintf(&w.buf, "Benchmark%s %d", Name(rec.Name), iters)
	for _, v := range []struct {
		ms   float64
		unit string
	}{
		{rec.Mean, "ns/op"},
		{rec.StdDev, "sd-ns/op"},
		{rec.Min, "min-ns/op"},
		{rec.Max, "max-ns/op"},
	} {
		fmt.Fprintf(&w.buf, " %s %s", strconv.FormatFloat(v.ms*1e6, 'f', -1, 64), v.unit)
	}
	w.buf.WriteByte('\n')
}

// Name converts a test name into a benchmark name: white space becomes
// underscores and the first letter is upper-cased, because readers
// ignore "Benchmark" lines followed by a lower-case letter.
func Name(test string) string {
	name := strings.Join(strings.Fields(test), "_")
	if name == "" {
		return "Unnamed"
	}
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}

// validKey reports whether key can be used as a configuration key: it
// begins with a lower case letter and contains no space, upper case
// characters or colons.
func validKey(key string) bool {
	for i, r := range key {
		if i == 0 && !unicode.IsLower(r) {
			return false
		}
		if unicode.IsSpace(r) || unicode.IsUpper(r) || r == ':' {
			return false
		}
	}
	return key != ""
}
