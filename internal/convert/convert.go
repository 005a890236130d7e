// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns acquired bill documents into plain text and
// segments the text into its titled parts and numbered sections.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/billgraph/internal/acquire"
	"github.com/pdiddy/billgraph/pkg/types"
)

const (
	// textDir is the subdirectory under the bills base for plain text output.
	textDir = "text"
	// htmlDir is the subdirectory under the bills base for acquired sources.
	htmlDir = "html"
)

// Converter transforms a bill source file into plain text.
type Converter interface {
	// Convert reads the file at path and returns its text.
	Convert(path string) (string, error)
}

// ByExtension dispatches to a Converter chosen by the lower-cased file
// extension of the source.
type ByExtension map[string]Converter

// Convert implements Converter.
func (b ByExtension) Convert(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := b[ext]
	if !ok {
		return "", fmt.Errorf("no converter for %q files", ext)
	}
	return c.Convert(path)
}

// DefaultConverters handles the HTML the acquire stage downloads.
func DefaultConverters() ByExtension {
	return ByExtension{
		".htm":  HTMLConverter{},
		".html": HTMLConverter{},
	}
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of bills processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any bills failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TextPath returns where the plain text of billID is written.
func TextPath(billsDir, billID string) string {
	return filepath.Join(billsDir, textDir, billID+".txt")
}

// ConvertBill converts a single bill to plain text and records the result
// in its metadata file. When the text already exists and force is not set
// the bill is skipped and ConversionNone is returned.
func ConvertBill(c Converter, bill types.Bill, billsDir string, force bool, w io.Writer) types.ConversionStatus {
	txtPath := TextPath(billsDir, bill.ID)

	if !force {
		if _, err := os.Stat(txtPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", bill.ID)
			return types.ConversionNone
		}
	}

	if err := os.MkdirAll(filepath.Dir(txtPath), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", bill.ID, err)
		return types.ConversionFailed
	}

	text, err := c.Convert(bill.HTMLPath)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("no text found in %s", bill.HTMLPath)
	}
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", bill.ID, err)
		recordStatus(bill, billsDir, types.ConversionFailed, w)
		return types.ConversionFailed
	}

	if err := os.WriteFile(txtPath, []byte(text+"\n"), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", bill.ID, err)
		return types.ConversionFailed
	}

	seg := Segment(text)
	bill.TextPath = txtPath
	bill.MeasureTitle = seg.MeasureTitle
	bill.ReportTitle = seg.ReportTitle
	bill.Description = seg.Description
	recordStatus(bill, billsDir, types.ConversionDone, w)

	fmt.Fprintf(w, "converted: %s (%d sections)\n", bill.ID, len(seg.Sections))
	return types.ConversionDone
}

// recordStatus writes bill with status to its metadata file. Failures to
// write are reported but do not change the conversion outcome.
func recordStatus(bill types.Bill, billsDir string, status types.ConversionStatus, w io.Writer) {
	bill.ConversionStatus = status
	path := acquire.MetadataPath(billsDir, bill.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(w, "  warning: %s metadata not updated (%v)\n", bill.ID, err)
		return
	}
	if err := acquire.WriteMetadata(&bill, path); err != nil {
		fmt.Fprintf(w, "  warning: %s metadata not updated (%v)\n", bill.ID, err)
	}
}

// ConvertBatch processes a list of bills through the converter, printing
// per-bill status to w and returning a summary.
func ConvertBatch(c Converter, bills []types.Bill, billsDir string, force bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, b := range bills {
		switch ConvertBill(c, b, billsDir, force, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// ConvertPaths builds Bill records from source paths and delegates to
// ConvertBatch. Each bill's ID is derived from the file name.
func ConvertPaths(c Converter, paths []string, billsDir string, force bool, w io.Writer) BatchResult {
	bills := make([]types.Bill, len(paths))
	for i, p := range paths {
		bills[i] = billFor(billsDir, p)
	}
	return ConvertBatch(c, bills, billsDir, force, w)
}

// FindBills lists every source file under billsDir/html/, using the stored
// metadata record when one exists.
func FindBills(billsDir string) ([]types.Bill, error) {
	dir := filepath.Join(billsDir, htmlDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}
	var bills []types.Bill
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		bills = append(bills, billFor(billsDir, filepath.Join(dir, e.Name())))
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].ID < bills[j].ID })
	return bills, nil
}

func billFor(billsDir, path string) types.Bill {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if b, err := acquire.ReadMetadata(acquire.MetadataPath(billsDir, id)); err == nil {
		b.HTMLPath = path
		return *b
	}
	return types.Bill{ID: id, HTMLPath: path}
}
