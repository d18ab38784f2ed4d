// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package results

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const header = "Test Name,Mean (ms),StdDev (ms),Min (ms),Max (ms),Samples\n"

func TestParse(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name: "overhead",
			input: header +
				"Partition Creation,1.2,0.1,1.0,1.5,50\n" +
				"Partition Release,0.8,0.05,0.7,0.9,50\n",
			want: []Record{
				{Name: "Partition Creation", Mean: 1.2, StdDev: 0.1, Min: 1.0, Max: 1.5, Samples: 50},
				{Name: "Partition Release", Mean: 0.8, StdDev: 0.05, Min: 0.7, Max: 0.9, Samples: 50},
			},
		},
		{
			name:  "header only",
			input: header,
			want:  []Record{},
		},
		{
			name:  "no trailing newline",
			input: header + "Scalability,12.5,3.25,8,19.75,10",
			want:  []Record{{Name: "Scalability", Mean: 12.5, StdDev: 3.25, Min: 8, Max: 19.75, Samples: 10}},
		},
		{
			name:  "quoted name",
			input: header + "\"Create, 4 partitions\",2,0,2,2,1\n",
			want:  []Record{{Name: "Create, 4 partitions", Mean: 2, Min: 2, Max: 2, Samples: 1}},
		},
		{
			name:  "unquoted name with quote",
			input: header + "Partition Creation,1.2,0.1,1.0,1.5,50\nAlloc 4\" block,0.8,0.05,0.7,0.9,50\n",
			want: []Record{
				{Name: "Partition Creation", Mean: 1.2, StdDev: 0.1, Min: 1.0, Max: 1.5, Samples: 50},
				{Name: "Alloc 4\" block", Mean: 0.8, StdDev: 0.05, Min: 0.7, Max: 0.9, Samples: 50},
			},
		},
		{
			name:  "name spanning lines",
			input: header + "\"Two\nLines\",1,0,1,1,1\nB,2,0,2,2,1\n",
			want: []Record{
				{Name: "Two\nLines", Mean: 1, Min: 1, Max: 1, Samples: 1},
				{Name: "B", Mean: 2, Min: 2, Max: 2, Samples: 1},
			},
		},
		{
			name:  "padded numbers",
			input: header + "Expiration Accuracy, 5.5 , 0.25,5,6, 20\n",
			want:  []Record{{Name: "Expiration Accuracy", Mean: 5.5, StdDev: 0.25, Min: 5, Max: 6, Samples: 20}},
		},
		{
			name:  "fractional sample count",
			input: header + "A,1,0,1,1,50.0\n",
			want:  []Record{{Name: "A", Mean: 1, Min: 1, Max: 1, Samples: 50}},
		},
		{
			name:  "unparseable sample count",
			input: header + "A,1,0,1,1,many\n",
			want:  []Record{{Name: "A", Mean: 1, Min: 1, Max: 1}},
		},
		{
			name:  "non-finite and huge sample counts",
			input: header + "A,1,0,1,1,nan\nB,1,0,1,1,-inf\nC,1,0,1,1,1e30\nD,1,0,1,1,-7\n",
			want: []Record{
				{Name: "A", Mean: 1, Min: 1, Max: 1},
				{Name: "B", Mean: 1, Min: 1, Max: 1},
				{Name: "C", Mean: 1, Min: 1, Max: 1},
				{Name: "D", Mean: 1, Min: 1, Max: 1, Samples: -7},
			},
		},
		{
			name:  "duplicate name keeps first position",
			input: header + "A,1,0,1,1,1\nB,2,0,2,2,1\nA,3,0,3,3,1\n",
			want: []Record{
				{Name: "A", Mean: 3, Min: 3, Max: 3, Samples: 1},
				{Name: "B", Mean: 2, Min: 2, Max: 2, Samples: 1},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(test.input), "test")
			if err != nil {
				t.Fatal(err)
			}
			got := tbl.Records()
			if got == nil {
				got = []Record{}
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			if tbl.Len() != len(test.want) {
				t.Errorf("Len() = %d, want %d", tbl.Len(), len(test.want))
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	// Values with no short decimal representation must survive
	// parsing bit for bit.
	const input = header + "T,0.30000000000000004,1e-300,0.1,123456789.123456789,3\n"
	tbl, err := Parse(strings.NewReader(input), "test")
	if err != nil {
		t.Fatal(err)
	}
	rec := tbl.Get("T")
	if rec.Mean != 0.30000000000000004 || rec.StdDev != 1e-300 || rec.Min != 0.1 || rec.Max != 123456789.123456789 {
		t.Errorf("got %+v", rec)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "test:1: missing header row"},
		{"too few fields", header + "A,1,0,1,1,1\nB,1,2,3\n", "test:3: expected 6 fields, got 4"},
		{"too many fields", header + "A,1,0,1,1,1,extra\n", "test:2: expected 6 fields, got 7"},
		{"bad mean", header + "A,fast,0,1,1,1\n", `test:2: mean: "fast" is not a number`},
		{"bad max", header + "A,1,0,1,,1\n", `test:2: max: "" is not a number`},
		{"blank line", header + "A,1,0,1,1,1\n\nB,1,0,1,1,1\n", "test:3: expected 6 fields, got 0"},
		{"blank line after header", header + "\nA,1,0,1,1,1\n", "test:2: expected 6 fields, got 0"},
	} {
		t.Run(test.name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(test.input), "test")
			if err == nil {
				t.Fatalf("want error, got table with %d records", tbl.Len())
			}
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("error %v does not match ErrMalformedRecord", err)
			}
			if err.Error() != test.want {
				t.Errorf("error = %q, want %q", err, test.want)
			}
		})
	}
}

func TestParseLenient(t *testing.T) {
	const input = header +
		"A,1,0,1,1,1\n" +
		"B,x,0,1,1,1\n" +
		"C,3,0,3,3\n" +
		"D,4,0.5,3,5,2\n"
	tbl, skipped, err := ParseLenient(strings.NewReader(input), "test")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "D"}, tbl.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	want := []*SyntaxError{
		{"test", 3, `mean: "x" is not a number`},
		{"test", 4, "expected 6 fields, got 5"},
	}
	if diff := cmp.Diff(want, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLenientBlankLines(t *testing.T) {
	const input = header + "A,1,0,1,1,1\n\n\nB,2,0,2,2,1\n"
	tbl, skipped, err := ParseLenient(strings.NewReader(input), "test")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, tbl.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	want := []*SyntaxError{{"test", 3, "expected 6 fields, got 0"}}
	if diff := cmp.Diff(want, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingRecord(t *testing.T) {
	tbl, err := Parse(strings.NewReader(header+"Partition Creation,1.2,0.1,1.0,1.5,50\n"), "test")
	if err != nil {
		t.Fatal(err)
	}
	first := tbl.Get("Partition Release")
	second := tbl.Get("Partition Release")
	if first != second {
		t.Errorf("repeated Get differs: %+v != %+v", first, second)
	}
	if first != Zero("Partition Release") || !first.IsZero() {
		t.Errorf("Get of missing name = %+v, want zero record", first)
	}
	if _, ok := tbl.Lookup("Partition Release"); ok {
		t.Errorf("Lookup of missing name reported present")
	}
	if tbl.Len() != 1 {
		t.Errorf("Get modified table: Len() = %d, want 1", tbl.Len())
	}

	var nilTable *Table
	if got := nilTable.Get("x"); got != Zero("x") {
		t.Errorf("nil table Get = %+v", got)
	}
	if nilTable.Len() != 0 || nilTable.Names() != nil || nilTable.Records() != nil {
		t.Errorf("nil table is not empty")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.csv")
	if err := os.WriteFile(path, []byte(header+"A,1,0,1,1,1\n"), 0666); err != nil {
		t.Fatal(err)
	}
	tbl, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Get("A").Mean; got != 1 {
		t.Errorf("A.Mean = %v, want 1", got)
	}

	_, err = ParseFile(filepath.Join(dir, "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile(missing) = %v, want not-exist error", err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte(header+"A,1\n"), 0666); err != nil {
		t.Fatal(err)
	}
	_, err = ParseFile(bad)
	var serr *SyntaxError
	if !errors.As(err, &serr) || serr.FileName != bad || serr.Line != 2 {
		t.Errorf("ParseFile(bad) = %v, want SyntaxError at %s:2", err, bad)
	}
}
