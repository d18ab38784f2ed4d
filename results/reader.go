// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedRecord is matched by every *SyntaxError.
var ErrMalformedRecord = errors.New("malformed record")

// numFields is the number of fields in every data row.
const numFields = 6

// columns names the fields of a data row for error messages.
var columns = [numFields]string{"test_name", "mean", "stddev", "min", "max", "sample_count"}

// A SyntaxError reports a malformed row in a results file.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// Is reports whether target is ErrMalformedRecord.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// A Reader reads a results file one row at a time.
//
// Its API is modeled on bufio.Scanner: call Scan to advance, then
// Record to get the row. A malformed row does not stop the Reader;
// Record reports it as a *SyntaxError and the next Scan moves on.
// Callers decide whether that is fatal.
type Reader struct {
	cr       *csv.Reader
	fileName string

	header bool  // header row has been consumed
	err    error // I/O error or missing header; stops the Reader

	// next is the line where the next row should start, or 0 if
	// unknown. pending holds a row read past a blank line.
	next    int
	pending []string

	rec    Record
	recErr *SyntaxError
}

// NewReader returns a Reader that parses results from r. fileName is
// used only in error messages.
func NewReader(r io.Reader, fileName string) *Reader {
	cr := csv.NewReader(r)
	// Field counts are checked per row so a short row is a
	// SyntaxError rather than a csv error.
	cr.FieldsPerRecord = -1
	// Names are written unquoted and may contain quote characters.
	cr.LazyQuotes = true
	if fileName == "" {
		fileName = "<input>"
	}
	return &Reader{cr: cr, fileName: fileName}
}

// Scan advances to the next data row. It returns false at the end of
// the input or after an error that prevents further reading; Err
// distinguishes the two.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if !r.header {
		r.header = true
		fields, err := r.cr.Read()
		if err != nil {
			if err == io.EOF {
				r.err = &SyntaxError{r.fileName, 1, "missing header row"}
				return false
			}
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				r.err = fmt.Errorf("%s: %w", r.fileName, err)
				return false
			}
			// A garbled header is still a header.
		} else {
			r.next = r.endLine(fields) + 1
		}
	}

	r.rec, r.recErr = Record{}, nil
	fields := r.pending
	r.pending = nil
	if fields == nil {
		var err error
		fields, err = r.cr.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.recErr = &SyntaxError{r.fileName, perr.StartLine, perr.Err.Error()}
				r.next = 0
				return true
			}
			r.err = fmt.Errorf("%s: %w", r.fileName, err)
			return false
		}
		// encoding/csv skips empty lines, but an empty row is
		// still a row with the wrong number of fields.
		if line, _ := r.cr.FieldPos(0); r.next > 0 && line > r.next {
			r.recErr = &SyntaxError{r.fileName, r.next, fmt.Sprintf("expected %d fields, got 0", numFields)}
			r.pending = fields
			r.next = line
			return true
		}
	}
	line, _ := r.cr.FieldPos(0)
	r.next = r.endLine(fields) + 1
	r.recErr = r.parseRow(line, fields)
	return true
}

// endLine returns the last line of the row most recently read by the
// csv.Reader, whose fields are fields.
func (r *Reader) endLine(fields []string) int {
	last := len(fields) - 1
	line, _ := r.cr.FieldPos(last)
	return line + strings.Count(fields[last], "\n")
}

func (r *Reader) parseRow(line int, fields []string) *SyntaxError {
	if len(fields) != numFields {
		return &SyntaxError{r.fileName, line, fmt.Sprintf("expected %d fields, got %d", numFields, len(fields))}
	}

	rec := Record{Name: fields[0]}
	stats := [...]*float64{&rec.Mean, &rec.StdDev, &rec.Min, &rec.Max}
	for i, p := range stats {
		f := fields[i+1]
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return &SyntaxError{r.fileName, line, fmt.Sprintf("%s: %q is not a number", columns[i+1], f)}
		}
		*p = v
	}

	rec.Samples = parseSamples(fields[5])

	r.rec = rec
	return nil
}

// parseSamples parses a sample count. The count is informational: the
// producer writes an integer, a decimal such as "50.0" is truncated,
// and anything else, including counts outside the int32 range, is 0.
func parseSamples(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.Abs(n) > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// Record returns the row read by the most recent call to Scan. If that
// row was malformed, it returns nil and a *SyntaxError. The returned
// Record is overwritten by the next call to Scan.
func (r *Reader) Record() (*Record, error) {
	if r.recErr != nil {
		return nil, r.recErr
	}
	return &r.rec, nil
}

// Err returns the error that stopped the Reader, if any. Malformed rows
// are not reported here.
func (r *Reader) Err() error {
	return r.err
}

// Parse reads a complete results file from r. The first malformed row
// aborts the parse and is returned as a *SyntaxError.
func Parse(r io.Reader, fileName string) (*Table, error) {
	rd := NewReader(r, fileName)
	tbl := new(Table)
	for rd.Scan() {
		rec, err := rd.Record()
		if err != nil {
			return nil, err
		}
		tbl.Add(*rec)
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	return tbl, nil
}

// ParseLenient is like Parse, but skips malformed rows. It returns the
// records it could parse along with the errors for the rows it skipped.
// The error result is non-nil only if reading stopped early.
func ParseLenient(r io.Reader, fileName string) (*Table, []*SyntaxError, error) {
	rd := NewReader(r, fileName)
	tbl := new(Table)
	var skipped []*SyntaxError
	for rd.Scan() {
		rec, err := rd.Record()
		if err != nil {
			skipped = append(skipped, err.(*SyntaxError))
			continue
		}
		tbl.Add(*rec)
	}
	if err := rd.Err(); err != nil {
		return nil, skipped, err
	}
	return tbl, skipped, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// ParseFileLenient opens path and parses it with ParseLenient.
func ParseFileLenient(path string) (*Table, []*SyntaxError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseLenient(f, path)
}
