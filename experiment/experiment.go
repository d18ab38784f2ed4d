// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package experiment drives the benchmark_chronos measurement
// executable and turns its results into charts.
//
// An Experiment is one run of the executable. Run invokes it with the
// path of a CSV file to write; RunAll additionally parses that file,
// reports on it, and renders charts. All files of a run live in one
// results directory and are named after the run's timestamp.
package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	// ErrMissingExecutable is returned by New if the executable
	// does not exist.
	ErrMissingExecutable = errors.New("benchmark executable not found")

	// ErrNoResult is matched by every *ProcessError: the
	// executable ran, or tried to, but produced no usable results.
	ErrNoResult = errors.New("benchmark produced no result")
)

const (
	// DefaultResultsDir is where runs write their files unless
	// ResultsDir says otherwise.
	DefaultResultsDir = "experiment_results"

	// TimestampLayout formats run timestamps. Runs started within
	// the same second share a timestamp, and so share file names.
	TimestampLayout = "20060102_150405"
)

// An Experiment is a single invocation of the measurement executable.
// It is immutable once created.
type Experiment struct {
	exe       string // as given to New
	path      string // exe, made explicitly relative if needed
	dir       string
	timestamp string
	timeout   time.Duration

	logf           func(format string, args ...interface{})
	stdout, stderr io.Writer
}

// An Option configures an Experiment.
type Option func(*Experiment)

// ResultsDir sets the directory that receives the run's files. It is
// created by Run, not by New.
func ResultsDir(dir string) Option {
	return func(e *Experiment) { e.dir = dir }
}

// At sets the time that names the run. The default is the time New
// is called.
func At(t time.Time) Option {
	return func(e *Experiment) { e.timestamp = t.Format(TimestampLayout) }
}

// Timeout bounds how long Run waits for the executable. The default,
// zero, waits as long as it takes.
func Timeout(d time.Duration) Option {
	return func(e *Experiment) { e.timeout = d }
}

// Logf sets the function that receives progress and diagnostic
// messages. By default they are discarded.
func Logf(logf func(format string, args ...interface{})) Option {
	return func(e *Experiment) { e.logf = logf }
}

// Output sets where the executable's captured standard output and
// standard error are copied after it exits. Either may be nil.
func Output(stdout, stderr io.Writer) Option {
	return func(e *Experiment) { e.stdout, e.stderr = stdout, stderr }
}

// New returns an Experiment that will run the executable at exe. It
// fails with ErrMissingExecutable if exe does not exist, before
// anything is written to disk.
func New(exe string, opts ...Option) (*Experiment, error) {
	if _, err := os.Stat(exe); err != nil {
		return nil, fmt.Errorf("%w at %s; build the project with -DBUILD_BENCHMARKS=ON", ErrMissingExecutable, exe)
	}
	e := &Experiment{
		exe:       exe,
		path:      exe,
		dir:       DefaultResultsDir,
		timestamp: time.Now().Format(TimestampLayout),
		logf:      func(string, ...interface{}) {},
	}
	// exec looks up bare names in $PATH; the executable is a file.
	if !strings.ContainsRune(exe, '/') && !strings.ContainsRune(exe, filepath.Separator) {
		e.path = "." + string(filepath.Separator) + exe
	}
	for _, o := range opts {
		o(e)
	}
	if e.stdout == nil {
		e.stdout = io.Discard
	}
	if e.stderr == nil {
		e.stderr = io.Discard
	}
	return e, nil
}

// Executable returns the executable path given to New.
func (e *Experiment) Executable() string { return e.exe }

// Timestamp returns the formatted timestamp that names the run.
func (e *Experiment) Timestamp() string { return e.timestamp }

// Dir returns the results directory.
func (e *Experiment) Dir() string { return e.dir }

// OutputPath returns the CSV file the executable is asked to write.
func (e *Experiment) OutputPath() string {
	return e.file("summary", "csv")
}

func (e *Experiment) file(kind, ext string) string {
	return filepath.Join(e.dir, fmt.Sprintf("%s_%s.%s", kind, e.timestamp, ext))
}

// An Invocation records one execution of the measurement executable.
type Invocation struct {
	// CSVPath is the results file. It is empty unless the
	// executable exited successfully.
	CSVPath string

	Stdout, Stderr []byte

	// ExitCode is the executable's exit status, or -1 if it
	// could not be started or was killed.
	ExitCode int

	Duration time.Duration
}

// A ProcessError reports that the executable failed. It matches
// ErrNoResult.
type ProcessError struct {
	Executable string
	ExitCode   int
	Stderr     []byte
	Err        error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("running %s: %v", e.Executable, e.Err)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Is reports whether target is ErrNoResult.
func (e *ProcessError) Is(target error) bool { return target == ErrNoResult }

// Run creates the results directory if needed, then runs the
// executable with OutputPath as its only argument and waits for it.
//
// The executable's output streams are captured and copied to the
// Output writers whether or not it succeeds. If it exits with status
// zero, Run returns an Invocation whose CSVPath is set. Otherwise it
// returns the Invocation along with a *ProcessError; callers should
// treat that as "no result" rather than as a fatal error.
func (e *Experiment) Run(ctx context.Context) (*Invocation, error) {
	if err := os.MkdirAll(e.dir, 0777); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out := e.OutputPath()
	e.logf("Running C++ benchmark suite...")
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, out)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	start := time.Now()
	err := cmd.Run()

	inv := &Invocation{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		inv.ExitCode = cmd.ProcessState.ExitCode()
	}
	e.surface(inv)

	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		perr := &ProcessError{Executable: e.exe, ExitCode: inv.ExitCode, Stderr: inv.Stderr, Err: err}
		e.logf("Error running benchmark executable: %v", err)
		return inv, perr
	}
	inv.CSVPath = out
	e.logf("Benchmark data saved to %s", out)
	return inv, nil
}

func (e *Experiment) surface(inv *Invocation) {
	e.stdout.Write(inv.Stdout)
	if len(inv.Stderr) > 0 {
		fmt.Fprintln(e.stderr, "Benchmark stderr:")
		e.stderr.Write(inv.Stderr)
	}
}

// DefaultCandidates returns the locations tried for the executable
// when none is given, relative to the project root.
func DefaultCandidates() []string {
	name := "benchmark_chronos"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return []string{
		filepath.Join("build", "bin", name),
		filepath.Join("build", name),
	}
}

// FindExecutable returns the first of candidates that exists. It
// calls logf for each candidate that does not.
func FindExecutable(logf func(format string, args ...interface{}), candidates ...string) (string, error) {
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
		if logf != nil {
			logf("Benchmark executable not found at %s", c)
		}
	}
	return "", fmt.Errorf("%w at any of %s", ErrMissingExecutable, strings.Join(candidates, ", "))
}
