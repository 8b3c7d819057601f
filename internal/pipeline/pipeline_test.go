package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// pngBytes encodes a solid-colour PNG in memory.
func pngBytes(t *testing.T, c color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// writeCSV writes a CSV table to a temp file and returns its path.
func writeCSV(t *testing.T, dir string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, "input.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create input table: %v", err)
	}
	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		t.Fatalf("Failed to write input table: %v", err)
	}
	writer.Flush()
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close input table: %v", err)
	}
	return path
}

// readCSV reads a CSV table back.
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open table: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}
	return rows
}

// parseHex splits a "#rrggbb" string into channels.
func parseHex(t *testing.T, hex string) (r, g, b int) {
	t.Helper()

	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		t.Fatalf("Malformed hex colour %q: %v", hex, err)
	}
	return r, g, b
}

// hexClose reports whether a hex colour matches an expected colour within
// a per-channel tolerance.
func hexClose(t *testing.T, hex string, want color.NRGBA, tolerance int) bool {
	t.Helper()

	r, g, b := parseHex(t, hex)
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(r-int(want.R)) <= tolerance && abs(g-int(want.G)) <= tolerance && abs(b-int(want.B)) <= tolerance
}

func TestRunEndToEnd(t *testing.T) {
	eggplant := color.NRGBA{R: 168, G: 41, B: 127, A: 255}
	carrot := color.NRGBA{R: 252, G: 133, B: 50, A: 255}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/eggplant.png":
			w.Write(pngBytes(t, eggplant))
		case "/carrot.png":
			w.Write(pngBytes(t, carrot))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"가지", server.URL + "/eggplant.png"},
		{"당근", server.URL + "/carrot.png"},
	})
	output := filepath.Join(dir, "output.csv")

	summary, err := Run(context.Background(), input, output, Options{
		CacheDir: filepath.Join(dir, "cache"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("Summary = %+v, want 2 succeeded, 0 failed", summary)
	}

	rows := readCSV(t, output)
	if len(rows) != 3 {
		t.Fatalf("Output has %d rows, want 3", len(rows))
	}

	wantHeader := []string{"crop_name", "image_url", "dominant_color"}
	for i, name := range wantHeader {
		if rows[0][i] != name {
			t.Errorf("Header[%d] = %q, want %q", i, rows[0][i], name)
		}
	}

	if !hexClose(t, rows[1][2], eggplant, 8) {
		t.Errorf("가지 colour = %s, want near #a8297f", rows[1][2])
	}
	if !hexClose(t, rows[2][2], carrot, 8) {
		t.Errorf("당근 colour = %s, want near #fc8532", rows[2][2])
	}
}

// TestRunFailedRowDoesNotAbortBatch verifies an unreachable image leaves
// its cell empty while every other row still completes.
func TestRunFailedRowDoesNotAbortBatch(t *testing.T) {
	good := color.NRGBA{R: 60, G: 160, B: 70, A: 255}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good.png" {
			w.Write(pngBytes(t, good))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"배추", server.URL + "/good.png"},
		{"감자", server.URL + "/broken.png"},
		{"상추", server.URL + "/good.png"},
	})
	output := filepath.Join(dir, "output.csv")

	summary, err := Run(context.Background(), input, output, Options{
		CacheDir: filepath.Join(dir, "cache"),
	})
	if err != nil {
		t.Fatalf("Batch must not abort on row failure: %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("Summary = %+v, want 2 succeeded, 1 failed", summary)
	}

	rows := readCSV(t, output)
	if len(rows) != 4 {
		t.Fatalf("Output has %d rows, want 4", len(rows))
	}
	if rows[2][2] != "" {
		t.Errorf("Failed row colour = %q, want empty", rows[2][2])
	}
	if rows[1][2] == "" || rows[3][2] == "" {
		t.Error("Healthy rows must still receive a colour")
	}
}

func TestRunDuplicateURLsFetchOnce(t *testing.T) {
	payload := pngBytes(t, color.NRGBA{R: 220, G: 60, B: 40, A: 255})

	dir := t.TempDir()
	calls := 0
	fetch := func(_ context.Context, _ string) ([]byte, error) {
		calls++
		return payload, nil
	}

	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"토마토", "https://example.com/tomato.png"},
		{"방울토마토", "https://example.com/tomato.png"},
		{"대추토마토", "https://example.com/tomato.png"},
	})
	output := filepath.Join(dir, "output.csv")

	if _, err := Run(context.Background(), input, output, Options{
		CacheDir: filepath.Join(dir, "cache"),
		Fetch:    fetch,
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("Fetch called %d times for one distinct URL, want 1", calls)
	}

	rows := readCSV(t, output)
	if rows[1][2] == "" || rows[1][2] != rows[2][2] || rows[2][2] != rows[3][2] {
		t.Errorf("Duplicate URLs must share one colour, got %q, %q, %q", rows[1][2], rows[2][2], rows[3][2])
	}
}

// TestRunIdempotentWithWarmCache verifies a second run over the same input
// needs no network at all and produces byte-identical output.
func TestRunIdempotentWithWarmCache(t *testing.T) {
	payload := pngBytes(t, color.NRGBA{R: 90, G: 140, B: 220, A: 255})

	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"블루베리", "https://example.com/blueberry.png"},
	})

	first := filepath.Join(dir, "first.csv")
	if _, err := Run(context.Background(), input, first, Options{
		CacheDir: cacheDir,
		Fetch: func(_ context.Context, _ string) ([]byte, error) {
			return payload, nil
		},
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	second := filepath.Join(dir, "second.csv")
	if _, err := Run(context.Background(), input, second, Options{
		CacheDir: cacheDir,
		Fetch: func(_ context.Context, url string) ([]byte, error) {
			return nil, fmt.Errorf("unexpected network access for %s", url)
		},
	}); err != nil {
		t.Fatalf("Unexpected error on warm cache run: %v", err)
	}

	firstBytes, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("Failed to read first output: %v", err)
	}
	secondBytes, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("Failed to read second output: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("Warm cache re-run must produce byte-identical output")
	}
}

func TestRunColourlessImage(t *testing.T) {
	// A fully transparent PNG filters down to nothing.
	payload := pngBytes(t, color.NRGBA{R: 0, G: 0, B: 0, A: 0})

	dir := t.TempDir()
	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"유령작물", "https://example.com/ghost.png"},
	})
	output := filepath.Join(dir, "output.csv")

	summary, err := Run(context.Background(), input, output, Options{
		CacheDir: filepath.Join(dir, "cache"),
		Fetch: func(_ context.Context, _ string) ([]byte, error) {
			return payload, nil
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Failed != 1 {
		t.Errorf("Summary = %+v, want 1 failed", summary)
	}
	rows := readCSV(t, output)
	if rows[1][2] != "" {
		t.Errorf("Colourless image should yield an empty cell, got %q", rows[1][2])
	}
}

func TestRunEmptyURLSkipped(t *testing.T) {
	dir := t.TempDir()
	input := writeCSV(t, dir, [][]string{
		{"crop_name", "image_url"},
		{"무", ""},
	})
	output := filepath.Join(dir, "output.csv")

	summary, err := Run(context.Background(), input, output, Options{
		CacheDir: filepath.Join(dir, "cache"),
		Fetch: func(_ context.Context, url string) ([]byte, error) {
			return nil, fmt.Errorf("unexpected fetch for %q", url)
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("Summary = %+v, want 1 skipped, 0 failed", summary)
	}
}

func TestRunUnrecoverableErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input table", func(t *testing.T) {
		_, err := Run(context.Background(), filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.csv"), Options{})
		if err == nil {
			t.Error("Expected error for missing input table")
		}
	})

	t.Run("missing image_url column", func(t *testing.T) {
		input := writeCSV(t, dir, [][]string{
			{"crop_name", "picture"},
			{"가지", "https://example.com/eggplant.png"},
		})
		_, err := Run(context.Background(), input, filepath.Join(dir, "out.csv"), Options{})
		if err == nil {
			t.Error("Expected error for missing image_url column")
		}
	})
}
