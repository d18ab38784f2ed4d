// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plots

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chronos-gpu/chronosbench/results"
)

func TestRenderPNG(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{Dir: dir, Timestamp: "20250102_030405", DPI: 50}

	for _, tbl := range []*results.Table{overheadTable(), new(results.Table)} {
		path, err := r.Render(tbl, DefaultOverhead)
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(dir, "overhead_20250102_030405.png"); path != want {
			t.Errorf("path = %s, want %s", path, want)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		// Two 6x5 inch subplots.
		if cfg.Width != 12*50 || cfg.Height != 5*50 {
			t.Errorf("image is %dx%d, want %dx%d", cfg.Width, cfg.Height, 12*50, 5*50)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	magic := map[string][]byte{
		"png": []byte("\x89PNG"),
		"svg": []byte("<?xml"),
		"pdf": []byte("%PDF"),
	}
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			r := &Renderer{Dir: t.TempDir(), Timestamp: "ts", Format: format, DPI: 30}
			for _, kind := range Kinds() {
				c, _ := Lookup(kind)
				path, err := r.Render(overheadTable(), c)
				if err != nil {
					t.Fatal(err)
				}
				if filepath.Base(path) != kind+"_ts."+format {
					t.Errorf("wrote %s", path)
				}
				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.HasPrefix(data, magic[format]) {
					t.Errorf("%s does not start with %q", path, magic[format])
				}
			}
		})
	}
}

func TestRenderEmptyMeans(t *testing.T) {
	r := &Renderer{Dir: t.TempDir(), Timestamp: "ts", DPI: 30}
	if _, err := r.Render(nil, Means{}); err != nil {
		t.Fatal(err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{Dir: dir, Timestamp: "ts", Format: "gif"}
	if _, err := r.Render(overheadTable(), DefaultOverhead); err == nil {
		t.Fatal("Render with format gif succeeded")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed Render left %d files behind", len(entries))
	}
}

func TestRenderMissingDir(t *testing.T) {
	r := &Renderer{Dir: filepath.Join(t.TempDir(), "absent"), Timestamp: "ts", DPI: 30}
	if _, err := r.Render(overheadTable(), DefaultOverhead); err == nil {
		t.Fatal("Render into a missing directory succeeded")
	}
}
