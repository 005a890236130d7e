// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads bill HTML from the legislature's session archive
// and writes a metadata record per bill.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/billgraph/internal/httputil"
	"github.com/pdiddy/billgraph/pkg/types"
)

const (
	htmlDir       = "html"
	metadataDir   = "metadata"
	htmlExtension = ".htm"
)

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bills      []*types.Bill
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any bills failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// HTMLPath returns where the HTML of billID is stored under billsDir.
func HTMLPath(billsDir, billID string) string {
	return filepath.Join(billsDir, htmlDir, billID+htmlExtension)
}

// MetadataPath returns where the metadata record of billID is stored.
func MetadataPath(billsDir, billID string) string {
	return filepath.Join(billsDir, metadataDir, billID+".yaml")
}

// Acquirer downloads bills over HTTP.
type Acquirer struct {
	client *http.Client
	cfg    types.AcquisitionConfig
	log    *zap.Logger
	now    func() time.Time
}

// New returns an Acquirer. A nil client uses one with cfg.Timeout; a nil
// logger disables logging.
func New(client *http.Client, cfg types.AcquisitionConfig, log *zap.Logger) *Acquirer {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Acquirer{client: client, cfg: cfg, log: log, now: time.Now}
}

// AcquireBill resolves a single identifier, downloads the HTML, and writes
// metadata. If the HTML already exists on disk, it skips the download and
// returns the stored record.
func (a *Acquirer) AcquireBill(ctx context.Context, identifier string, w io.Writer) (bill *types.Bill, skipped bool, err error) {
	idType, normalized := Classify(identifier)
	if idType == TypeUnknown {
		return nil, false, fmt.Errorf("unrecognized bill identifier: %q", identifier)
	}

	slug := Slug(idType, normalized)
	htmlPath := HTMLPath(a.cfg.BillsDir, slug)
	metaPath := MetadataPath(a.cfg.BillsDir, slug)

	if _, err := os.Stat(htmlPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		b, readErr := ReadMetadata(metaPath)
		if readErr != nil {
			b = &types.Bill{ID: slug, HTMLPath: htmlPath}
		}
		return b, true, nil
	}

	sourceURL := SourceURL(idType, normalized, a.cfg.Session)
	if sourceURL == "" {
		return nil, false, fmt.Errorf("cannot resolve URL for %q", identifier)
	}

	for _, dir := range []string{filepath.Dir(htmlPath), filepath.Dir(metaPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", slug, idType)
	a.log.Debug("downloading bill", zap.String("bill", slug), zap.String("url", sourceURL))

	if err := a.download(ctx, sourceURL, htmlPath); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	b := &types.Bill{
		ID:               slug,
		SourceURL:        sourceURL,
		HTMLPath:         htmlPath,
		AcquiredAt:       a.now().UTC(),
		ConversionStatus: types.ConversionNone,
	}
	if ref, ok := ParseBill(slug); ok {
		b.Chamber = ref.Chamber
		b.Number = ref.Number
		b.Draft = ref.Draft()
		if idType == TypeBill {
			b.Session = a.cfg.Session
		}
	}

	if err := WriteMetadata(b, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}
	return b, false, nil
}

// AcquireBatch processes multiple identifiers, printing per-item status
// and returning a summary. It continues after individual failures and
// waits cfg.DownloadDelay between consecutive downloads.
func (a *Acquirer) AcquireBatch(ctx context.Context, identifiers []string, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range identifiers {
		if i > 0 && a.cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.cfg.DownloadDelay):
			}
		}
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, ctx.Err())
			result.Failed++
			continue
		}
		bill, wasSkipped, err := a.AcquireBill(ctx, id, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Bills = append(result.Bills, bill)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// download fetches url to destPath using a temporary file that is renamed
// into place on success.
func (a *Acquirer) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0, a.log)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteMetadata writes a Bill record to a YAML file.
func WriteMetadata(bill *types.Bill, path string) error {
	data, err := yaml.Marshal(bill)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadMetadata reads a Bill record from a YAML file.
func ReadMetadata(path string) (*types.Bill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bill types.Bill
	if err := yaml.Unmarshal(data, &bill); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return &bill, nil
}
