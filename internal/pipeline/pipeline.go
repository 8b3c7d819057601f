// Package pipeline runs the batch colour extraction over a CSV table of
// crop records.
package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/croptint/internal/colour"
	imageutil "github.com/jmylchreest/croptint/internal/image"
	httputil "github.com/jmylchreest/croptint/internal/util/http"
	"github.com/jmylchreest/croptint/internal/util/imagecache"
)

const (
	// URLColumn is the required input column holding the image URL.
	URLColumn = "image_url"

	// ColourColumn is the column appended to the output table.
	ColourColumn = "dominant_color"
)

// Options configures a batch run.
type Options struct {
	// Algorithm selects the extraction algorithm. Defaults to HSV.
	Algorithm colour.Algorithm

	// Extract configures the extractor.
	Extract colour.Options

	// CacheDir is the image cache root. Empty means the default.
	CacheDir string

	// Timeout bounds each image fetch. Zero means the default.
	Timeout time.Duration

	// Logger receives per-row warnings and the run summary.
	Logger hclog.Logger

	// Progress, when non-nil, receives per-URL progress output.
	Progress io.Writer

	// Fetch overrides the network fetch. Nil means plain HTTP GET.
	// Tests substitute an in-memory fetch here.
	Fetch imagecache.FetchFunc
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Rows      int
	Succeeded int
	Failed    int
	Skipped   int
}

// Run reads the input table, resolves a dominant colour per distinct URL,
// and writes the augmented table. A failed row never aborts the batch; its
// colour cell is left empty. An unreadable input or unwritable output is
// fatal.
func Run(ctx context.Context, inputPath, outputPath string, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	header, rows, urlIdx, err := readTable(inputPath)
	if err != nil {
		return Summary{}, err
	}

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = colour.AlgorithmHSV
	}
	extractor, err := colour.NewExtractor(algorithm, opts.Extract)
	if err != nil {
		return Summary{}, err
	}

	fetch := opts.Fetch
	if fetch == nil {
		fetch = func(ctx context.Context, url string) ([]byte, error) {
			return httputil.Fetch(ctx, url, httputil.FetchOptions{Timeout: opts.Timeout})
		}
	}
	cache := imagecache.New(opts.CacheDir, fetch)

	// Distinct URLs in first-seen order. Failures are memoized too, so a
	// duplicate URL is never fetched or reported twice in one run.
	var urls []string
	seen := make(map[string]bool)
	for _, row := range rows {
		url := field(row, urlIdx)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}

	colours := make(map[string]string, len(urls))
	for i, url := range urls {
		if opts.Progress != nil {
			fmt.Fprintf(opts.Progress, "\rProcessing images: %d/%d", i+1, len(urls))
		}

		hex, err := resolve(ctx, url, cache, extractor)
		if err != nil {
			logger.Warn("failed to extract colour", "url", url, "reason", failureKind(err), "error", err)
			colours[url] = ""
			continue
		}
		colours[url] = hex
	}
	if opts.Progress != nil && len(urls) > 0 {
		fmt.Fprintln(opts.Progress)
	}

	summary := Summary{Rows: len(rows)}
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append(append([]string{}, header...), ColourColumn))
	for _, row := range rows {
		url := field(row, urlIdx)
		hex := colours[url]
		switch {
		case url == "":
			summary.Skipped++
		case hex == "":
			summary.Failed++
		default:
			summary.Succeeded++
		}
		out = append(out, append(append([]string{}, row...), hex))
	}

	if err := writeTable(outputPath, out); err != nil {
		return summary, err
	}

	logger.Info("batch complete",
		"rows", summary.Rows,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary, nil
}

// resolve runs the per-image pipeline for one URL: cached fetch, decode,
// dominant colour extraction.
func resolve(ctx context.Context, url string, cache *imagecache.Cache, extractor colour.Extractor) (string, error) {
	data, err := cache.GetOrFetch(ctx, url)
	if err != nil {
		return "", err
	}

	img, err := imageutil.Decode(data)
	if err != nil {
		return "", err
	}

	rgb, ok := extractor.Dominant(img)
	if !ok {
		return "", ErrNoColour
	}

	return rgb.Hex(), nil
}

// ErrNoColour indicates every pixel of an image was filtered out, so no
// representative colour exists.
var ErrNoColour = errors.New("no usable pixels after filtering")

// failureKind names the failure category for row-level warnings.
func failureKind(err error) string {
	var fetchErr *httputil.FetchError
	if errors.As(err, &fetchErr) {
		return string(fetchErr.Reason)
	}
	var decodeErr *imageutil.DecodeError
	if errors.As(err, &decodeErr) {
		return "decode_error"
	}
	if errors.Is(err, ErrNoColour) {
		return "empty_sample"
	}
	return "error"
}

// field returns a row column, tolerating short rows.
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// readTable reads a CSV table with a required header row and locates the
// image URL column.
func readTable(path string) (header []string, rows [][]string, urlIdx int, err error) {
	f, err := os.Open(path) // #nosec G304 - User-specified table path, intended to be read
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open input table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read input table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, 0, fmt.Errorf("input table is empty: %s", path)
	}

	header = records[0]
	urlIdx = -1
	for i, name := range header {
		if name == URLColumn {
			urlIdx = i
			break
		}
	}
	if urlIdx == -1 {
		return nil, nil, 0, fmt.Errorf("input table has no %q column", URLColumn)
	}

	return header, records[1:], urlIdx, nil
}

// writeTable writes the augmented table, preserving input row order.
func writeTable(path string, records [][]string) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path, intended to be written
	if err != nil {
		return fmt.Errorf("failed to create output table: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output table: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output table: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output table: %w", err)
	}
	return nil
}
