// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/billgraph/internal/httputil"
	"github.com/pdiddy/billgraph/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func TestParseBill(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		draft  string
		wantOK bool
	}{
		{"introduced", "HB767", "HB767", "", true},
		{"lower case with space", "hb 767", "HB767", "", true},
		{"senate draft", "SB2182_SD1", "SB2182_SD1", "SD1", true},
		{"several drafts", "HB767 HD2 SD2 CD1", "HB767_HD2_SD2_CD1", "HD2_SD2_CD1", true},
		{"dash separated", "sb2182-sd1", "SB2182_SD1", "SD1", true},
		{"leading zeros", "HB0042", "HB42", "", true},
		{"all zeros", "HB0000", "", "", false},
		{"too many digits", "HB12345", "", "", false},
		{"wrong chamber", "XB767", "", "", false},
		{"bad draft", "HB767_XD1", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ParseBill(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseBill(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ref.String() != tt.want {
				t.Errorf("ParseBill(%q) = %q, want %q", tt.input, ref.String(), tt.want)
			}
			if ref.Draft() != tt.draft {
				t.Errorf("ParseBill(%q).Draft() = %q, want %q", tt.input, ref.Draft(), tt.draft)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"bill", "HB767", TypeBill, "HB767"},
		{"bill with draft", "sb2182 sd1", TypeBill, "SB2182_SD1"},
		{"url https", "https://example.com/bills/HB767_.htm", TypeURL, "https://example.com/bills/HB767_.htm"},
		{"url http", "http://example.com/x.htm", TypeURL, "http://example.com/x.htm"},
		{"unknown bare word", "not-a-bill", TypeUnknown, "not-a-bill"},
		{"unknown empty", "", TypeUnknown, ""},
		{"whitespace trimmed", "  HB767  ", TypeBill, "HB767"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			if gotType != tt.wantType {
				t.Errorf("Classify(%q) type = %v, want %v", tt.input, gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("Classify(%q) norm = %q, want %q", tt.input, gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		idType   IdentifierType
		norm     string
		wantSlug string
	}{
		{"bill", TypeBill, "HB767_HD2", "HB767_HD2"},
		{"capitol url", TypeURL, "https://www.capitol.hawaii.gov/sessions/session2021/bills/HB767_HD2_.htm", "HB767_HD2"},
		{"other url", TypeURL, "https://example.com/my-bill.html", "my-bill"},
		{"url no filename", TypeURL, "https://example.com/", urlHashSlug("https://example.com/")},
		{"unknown", TypeUnknown, "x", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.idType, tt.norm)
			if got != tt.wantSlug {
				t.Errorf("Slug(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.wantSlug)
			}
		})
	}
}

func TestSourceURL(t *testing.T) {
	tests := []struct {
		name    string
		idType  IdentifierType
		norm    string
		wantURL string
	}{
		{"introduced bill", TypeBill, "HB767", capitolBase + "session2021/bills/HB767_.htm"},
		{"draft bill", TypeBill, "SB2182_SD1", capitolBase + "session2021/bills/SB2182_SD1_.htm"},
		{"url passthrough", TypeURL, "https://example.com/b.htm", "https://example.com/b.htm"},
		{"unknown empty", TypeUnknown, "foo", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SourceURL(tt.idType, tt.norm, 2021)
			if got != tt.wantURL {
				t.Errorf("SourceURL(%v, %q) = %q, want %q", tt.idType, tt.norm, got, tt.wantURL)
			}
		})
	}
}

const fakeBillHTML = `<html><body><p class="MeasureTitle">RELATING TO FARM TO SCHOOL.</p></body></html>`

// newTestServer serves fake bill HTML under /session2021/bills/ and 404s
// everything else.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/session2021/bills/") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != "billgraph-test/0.1" {
			http.Error(w, "missing user agent", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, fakeBillHTML)
	}))
}

// overrideBaseURL points the session archive at the test server and
// returns a cleanup function that restores the original.
func overrideBaseURL(tsURL string) func() {
	orig := capitolBase
	capitolBase = tsURL + "/"
	return func() { capitolBase = orig }
}

func testConfig(dir string) types.AcquisitionConfig {
	return types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "billgraph-test/0.1",
		},
		DownloadDelay: 0,
		Session:       2021,
		BillsDir:      dir,
	}
}

func TestAcquireBill(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	defer overrideBaseURL(ts.URL)()

	dir := t.TempDir()
	a := New(ts.Client(), testConfig(dir), nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a.now = func() time.Time { return fixed }
	var buf bytes.Buffer

	bill, skipped, err := a.AcquireBill(context.Background(), "hb767 hd2", &buf)
	if err != nil {
		t.Fatalf("AcquireBill: %v", err)
	}
	if skipped {
		t.Error("expected download, got skipped")
	}
	if bill.ID != "HB767_HD2" {
		t.Errorf("bill.ID = %q, want %q", bill.ID, "HB767_HD2")
	}
	if bill.Chamber != "HB" || bill.Number != "767" || bill.Draft != "HD2" || bill.Session != 2021 {
		t.Errorf("bill = %+v", bill)
	}
	if bill.SourceURL != ts.URL+"/session2021/bills/HB767_HD2_.htm" {
		t.Errorf("bill.SourceURL = %q", bill.SourceURL)
	}
	if !bill.AcquiredAt.Equal(fixed) {
		t.Errorf("bill.AcquiredAt = %v", bill.AcquiredAt)
	}

	data, err := os.ReadFile(filepath.Join(dir, "html", "HB767_HD2.htm"))
	if err != nil {
		t.Fatalf("reading HTML: %v", err)
	}
	if string(data) != fakeBillHTML {
		t.Errorf("HTML content = %q", string(data))
	}

	meta, err := ReadMetadata(filepath.Join(dir, "metadata", "HB767_HD2.yaml"))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.ID != bill.ID || meta.ConversionStatus != types.ConversionNone {
		t.Errorf("metadata = %+v", meta)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "html"))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	if !strings.Contains(buf.String(), "downloading:") {
		t.Error("output should contain 'downloading:'")
	}
}

func TestAcquireBillURL(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	dir := t.TempDir()
	a := New(ts.Client(), testConfig(dir), nil)

	billURL := ts.URL + "/session2021/bills/SB2182_SD1_.htm"
	bill, _, err := a.AcquireBill(context.Background(), billURL, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("AcquireBill: %v", err)
	}
	if bill.ID != "SB2182_SD1" {
		t.Errorf("bill.ID = %q", bill.ID)
	}
	if bill.SourceURL != billURL {
		t.Errorf("bill.SourceURL = %q, want %q", bill.SourceURL, billURL)
	}
	if bill.Session != 0 {
		t.Errorf("URL bills should not guess a session, got %d", bill.Session)
	}
}

func TestAcquireBillSkipExisting(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	defer overrideBaseURL(ts.URL)()

	dir := t.TempDir()
	htmlPath := HTMLPath(dir, "HB767")
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(htmlPath, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	bill, skipped, err := New(ts.Client(), testConfig(dir), nil).AcquireBill(context.Background(), "HB767", &buf)
	if err != nil {
		t.Fatalf("AcquireBill: %v", err)
	}
	if !skipped {
		t.Error("expected skipped, got download")
	}
	if bill.ID != "HB767" || bill.HTMLPath != htmlPath {
		t.Errorf("bill = %+v", bill)
	}
	if !strings.Contains(buf.String(), "skipped:") {
		t.Error("output should contain 'skipped:'")
	}
}

func TestAcquireBillNotFound(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	dir := t.TempDir()
	_, _, err := New(ts.Client(), testConfig(dir), nil).AcquireBill(context.Background(), ts.URL+"/missing/HB1_.htm", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("err = %v, want HTTP 404", err)
	}
	if _, statErr := os.Stat(HTMLPath(dir, "HB1")); statErr == nil {
		t.Error("failed download should not leave an HTML file")
	}
}

func TestAcquireBillRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, fakeBillHTML)
	}))
	defer ts.Close()

	_, _, err := New(ts.Client(), testConfig(t.TempDir()), nil).AcquireBill(context.Background(), ts.URL+"/HB767_.htm", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("AcquireBill: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestAcquireBillUnknownIdentifier(t *testing.T) {
	_, _, err := New(nil, testConfig(t.TempDir()), nil).AcquireBill(context.Background(), "not-a-bill", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown identifier")
	}
	if !strings.Contains(err.Error(), "unrecognized") {
		t.Errorf("error = %v", err)
	}
}

func TestAcquireBatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	defer overrideBaseURL(ts.URL)()

	dir := t.TempDir()
	a := New(ts.Client(), testConfig(dir), nil)
	var buf bytes.Buffer

	identifiers := []string{
		"HB767",          // bill: should download
		"bad-identifier", // unknown: should fail
		ts.URL + "/session2021/bills/SB2182_.htm", // URL: should download
	}

	result := a.AcquireBatch(context.Background(), identifiers, &buf)

	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", result.Downloaded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Total() != 3 {
		t.Errorf("Total = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if len(result.Bills) != 2 {
		t.Errorf("len(Bills) = %d, want 2", len(result.Bills))
	}
	if !strings.Contains(buf.String(), "Batch summary:") {
		t.Error("output should contain batch summary")
	}

	// A second run skips everything that was downloaded.
	buf.Reset()
	result = a.AcquireBatch(context.Background(), identifiers[:1], &buf)
	if result.Skipped != 1 || result.Downloaded != 0 {
		t.Errorf("second run = %+v", result)
	}
}

func TestAcquireBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(t.TempDir())
	result := New(nil, cfg, nil).AcquireBatch(ctx, []string{"HB1", "HB2"}, &bytes.Buffer{})
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}
}

func TestWriteAndReadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HB767.yaml")
	want := &types.Bill{
		ID:               "HB767",
		Chamber:          "HB",
		Number:           "767",
		Session:          2021,
		SourceURL:        "https://example.com/HB767_.htm",
		HTMLPath:         "bills/html/HB767.htm",
		MeasureTitle:     "RELATING TO FARM TO SCHOOL",
		AcquiredAt:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		ConversionStatus: types.ConversionDone,
	}
	if err := WriteMetadata(want, path); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	got, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if got.ID != want.ID || got.MeasureTitle != want.MeasureTitle || got.ConversionStatus != want.ConversionStatus {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.AcquiredAt.Equal(want.AcquiredAt) {
		t.Errorf("AcquiredAt = %v, want %v", got.AcquiredAt, want.AcquiredAt)
	}
}
