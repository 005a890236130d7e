// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/annotator"
	"github.com/pdiddy/billgraph/pkg/types"
)

// --- fake annotators ---

// stallingAnnotator accepts the probe and then never answers.
type stallingAnnotator struct{}

func (stallingAnnotator) Probe(context.Context) error { return nil }

func (stallingAnnotator) AnnotateChunks(ctx context.Context, chunks []string, _ []int) (*annotator.Document, annotator.ChunkStats, error) {
	<-ctx.Done()
	return nil, annotator.ChunkStats{Failed: len(chunks)}, ctx.Err()
}

// downAnnotator fails the probe.
type downAnnotator struct{}

func (downAnnotator) Probe(context.Context) error { return annotator.ErrUnavailable }

func (downAnnotator) AnnotateChunks(context.Context, []string, []int) (*annotator.Document, annotator.ChunkStats, error) {
	panic("AnnotateChunks called after failed probe")
}

// scriptedAnnotator returns a fixed document for every call.
type scriptedAnnotator struct {
	doc    *annotator.Document
	probes int
	chunks [][]string
}

func (s *scriptedAnnotator) Probe(context.Context) error {
	s.probes++
	return nil
}

func (s *scriptedAnnotator) AnnotateChunks(_ context.Context, chunks []string, _ []int) (*annotator.Document, annotator.ChunkStats, error) {
	s.chunks = append(s.chunks, chunks)
	return s.doc, annotator.ChunkStats{Annotated: len(chunks)}, nil
}

func testExtractionConfig() types.ExtractionConfig {
	cfg := types.DefaultExtractionConfig()
	cfg.Deadline = 100 * time.Millisecond
	return cfg
}

const billText = "A BILL FOR AN ACT RELATING TO THE FARM TO SCHOOL PROGRAM. " +
	"SECTION 1. The farm to school program shall be transferred from the department of agriculture " +
	"to the department of education. The DOE shall work with agricultural communities so that " +
	"thirty per cent of food served in public schools is locally sourced by 2030."

// --- graceful degradation ---

func TestAnnotatorTimeoutFallsBackToPatterns(t *testing.T) {
	tbl := farmToSchool(t)
	e := New(testExtractionConfig(), tbl, stallingAnnotator{}, nil)

	start := time.Now()
	res, reports, err := e.ExtractAll(context.Background(), billText)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("fallback took %v", elapsed)
	}

	want := e.ExtractWithPatterns(billText)
	if !reflect.DeepEqual(res, want) {
		t.Errorf("fallback result differs from pattern-only result")
	}
	if res.Method != "patterns:farm-to-school" {
		t.Errorf("Method = %q", res.Method)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d attempt reports, want 2", len(reports))
	}
	if reports[0].Name != "annotator" || reports[0].OK || reports[0].Error == "" {
		t.Errorf("annotator report = %+v", reports[0])
	}
	if reports[1].Name != "patterns" || !reports[1].OK {
		t.Errorf("pattern report = %+v", reports[1])
	}
}

func TestAnnotatorServerTimeoutFallsBackToPatterns(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	acfg := types.DefaultAnnotatorConfig()
	acfg.URL = ts.URL
	acfg.MaxRetries = 0
	acfg.Timeout = 50 * time.Millisecond
	client := annotator.NewClient(acfg, ts.Client(), nil)

	tbl := farmToSchool(t)
	e := New(testExtractionConfig(), tbl, client, nil)

	res, reports, err := e.ExtractAll(context.Background(), billText)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if !reflect.DeepEqual(res, e.ExtractWithPatterns(billText)) {
		t.Errorf("fallback result differs from pattern-only result")
	}
	if reports[0].OK {
		t.Errorf("annotator attempt reported success")
	}
}

func TestAnnotatorDownFallsBackToPatterns(t *testing.T) {
	tbl := farmToSchool(t)
	e := New(testExtractionConfig(), tbl, downAnnotator{}, nil)

	res, reports, err := e.ExtractAll(context.Background(), billText)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if !reflect.DeepEqual(res, e.ExtractWithPatterns(billText)) {
		t.Errorf("fallback result differs from pattern-only result")
	}
	if !strings.Contains(reports[0].Error, "unavailable") {
		t.Errorf("annotator error = %q", reports[0].Error)
	}
}

func TestPatternsOnlySkipsAnnotator(t *testing.T) {
	tbl := farmToSchool(t)
	cfg := testExtractionConfig()
	cfg.PatternsOnly = true
	fake := &scriptedAnnotator{}
	e := New(cfg, tbl, fake, nil)

	_, reports, err := e.ExtractAll(context.Background(), billText)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if fake.probes != 0 || len(fake.chunks) != 0 {
		t.Errorf("annotator was used")
	}
	if len(reports) != 1 || reports[0].Name != "patterns" {
		t.Errorf("reports = %+v", reports)
	}
}

func TestAnnotatorSuccessUnionsWithPatterns(t *testing.T) {
	text := "Farmers grow taro."
	doc := &annotator.Document{Sentences: []annotator.Sentence{{
		Tokens: []annotator.Token{
			{Index: 1, Word: "Farmers", CharacterOffsetBegin: 0, CharacterOffsetEnd: 7},
			{Index: 2, Word: "grow", CharacterOffsetBegin: 8, CharacterOffsetEnd: 12},
			{Index: 3, Word: "taro", CharacterOffsetBegin: 13, CharacterOffsetEnd: 17},
			{Index: 4, Word: ".", CharacterOffsetBegin: 17, CharacterOffsetEnd: 18},
		},
		EntityMentions: []annotator.EntityMention{
			{Text: "taro", NER: "MISC", CharacterOffsetBegin: 13, CharacterOffsetEnd: 17},
			{Text: "xyz", NER: "MISC", CharacterOffsetBegin: 40, CharacterOffsetEnd: 43},
		},
	}}}
	fake := &scriptedAnnotator{doc: doc}
	tbl := farmToSchool(t)
	e := New(testExtractionConfig(), tbl, fake, nil)

	res, reports, err := e.ExtractAll(context.Background(), text)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(reports) != 1 || !reports[0].OK {
		t.Fatalf("reports = %+v", reports)
	}
	if fake.probes != 1 {
		t.Errorf("probes = %d, want 1", fake.probes)
	}
	if len(fake.chunks) != 1 || len(fake.chunks[0]) != 1 || fake.chunks[0][0] != text {
		t.Errorf("short text should be sent as one chunk, got %v", fake.chunks)
	}
	if res.Method != "annotator+patterns:farm-to-school" {
		t.Errorf("Method = %q", res.Method)
	}

	fromPatterns := Recognize(text, tbl)
	if len(res.Entities) != len(fromPatterns)+1 {
		t.Fatalf("got %d entities, want %d", len(res.Entities), len(fromPatterns)+1)
	}
	for i, p := range fromPatterns {
		if !reflect.DeepEqual(res.Entities[i], p) {
			t.Errorf("entity %d = %+v, want pattern entity %+v", i, res.Entities[i], p)
		}
	}
	last := res.Entities[len(res.Entities)-1]
	if last.Text != "taro" || last.StartChar != 13 || last.Source != sourceNER {
		t.Errorf("annotator entity = %+v", last)
	}

	var dropped bool
	for _, n := range res.Notes {
		if strings.Contains(n, "dropped 1") {
			dropped = true
		}
	}
	if !dropped {
		t.Errorf("notes %v do not mention the dropped mention", res.Notes)
	}
}

func TestAnnotatorChunksLongText(t *testing.T) {
	fake := &scriptedAnnotator{doc: &annotator.Document{}}
	cfg := testExtractionConfig()
	cfg.ChunkSize = 1500
	cfg.ChunkThreshold = 2000
	cfg.SkipProbe = true
	e := New(cfg, farmToSchool(t), fake, nil)

	text := longBill(5000)
	if _, _, err := e.ExtractAll(context.Background(), text); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if fake.probes != 0 {
		t.Errorf("probe ran with SkipProbe set")
	}
	if len(fake.chunks) != 1 {
		t.Fatalf("AnnotateChunks called %d times, want 1", len(fake.chunks))
	}
	if len(fake.chunks[0]) < 4 {
		t.Fatalf("expected at least 4 chunks, got %d", len(fake.chunks[0]))
	}
	for i, c := range fake.chunks[0] {
		if len(c) > 1500 {
			t.Errorf("chunk %d has %d bytes", i, len(c))
		}
	}
}

func TestMemoryEfficientChunksMediumText(t *testing.T) {
	fake := &scriptedAnnotator{doc: &annotator.Document{}}
	cfg := testExtractionConfig()
	cfg.SkipProbe = true
	cfg.UseMemoryEfficientChunks()
	e := New(cfg, farmToSchool(t), fake, nil)

	text := longBill(1800)
	if _, _, err := e.ExtractAll(context.Background(), text); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(fake.chunks) != 1 {
		t.Fatalf("AnnotateChunks called %d times, want 1", len(fake.chunks))
	}
	if len(fake.chunks[0]) < 2 {
		t.Fatalf("got %d chunks, want the text split", len(fake.chunks[0]))
	}
	for i, c := range fake.chunks[0] {
		if len(c) > types.MemoryEfficientChunkSize {
			t.Errorf("chunk %d has %d bytes", i, len(c))
		}
	}
}

func TestRunAttemptsAllFail(t *testing.T) {
	_, reports, err := runAttempts(context.Background(), []Attempt{
		AnnotatorAttempt{Client: downAnnotator{}, Table: farmToSchool(t)},
	}, "text", zap.NewNop())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, annotator.ErrUnavailable) {
		t.Errorf("error %v does not wrap ErrUnavailable", err)
	}
	if len(reports) != 1 {
		t.Errorf("reports = %+v", reports)
	}
}

// --- document assembly ---

func TestRunBuildsCanonicalDocument(t *testing.T) {
	tbl := farmToSchool(t)
	cfg := testExtractionConfig()
	cfg.PatternsOnly = true
	e := New(cfg, tbl, nil, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }
	e.newID = func() string { return "run-1" }

	doc, err := e.Run(context.Background(), "HB767", billText)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if doc.BillID != "HB767" || doc.Version != Version {
		t.Errorf("header = %q %q", doc.BillID, doc.Version)
	}
	md := doc.Metadata
	if md.RunID != "run-1" || !md.GeneratedAt.Equal(fixed) {
		t.Errorf("run metadata = %q %v", md.RunID, md.GeneratedAt)
	}
	if md.Profile != "farm-to-school" || md.ExtractionMethod != "patterns:farm-to-school" {
		t.Errorf("profile/method = %q %q", md.Profile, md.ExtractionMethod)
	}
	if md.MeasureTitle != "RELATING TO THE FARM TO SCHOOL PROGRAM" {
		t.Errorf("MeasureTitle = %q", md.MeasureTitle)
	}
	if md.TotalEntities != len(doc.Entities) || md.TotalRelations != len(doc.Relations) {
		t.Errorf("totals do not match content")
	}

	var from, to bool
	for _, r := range doc.Relations {
		if r.Subject != "farm to school program" {
			continue
		}
		switch {
		case r.Predicate == "moved from" && r.Object == "department of agriculture":
			from = true
		case r.Predicate == "moved to" && r.Object == "department of education":
			to = true
		}
	}
	if !from || !to {
		t.Errorf("missing canonical move relations: from=%v to=%v", from, to)
	}

	seen := make(map[string]bool)
	for _, ent := range doc.Entities {
		k := ent.Type + "|" + ent.Text
		if seen[k] {
			t.Errorf("duplicate entity %s", k)
		}
		seen[k] = true
		if ent.ID == "" {
			t.Errorf("entity %s has no ID", k)
		}
		if ent.Text == "doe" || ent.Text == "hdoa" {
			t.Errorf("alias %q survived canonicalization", ent.Text)
		}
	}

	again := e.canon.Entities(doc.Entities)
	if !reflect.DeepEqual(again, doc.Entities) {
		t.Errorf("canonicalization is not idempotent")
	}
	relsAgain := e.canon.Relations(doc.Relations)
	if !reflect.DeepEqual(relsAgain, doc.Relations) {
		t.Errorf("relation canonicalization is not idempotent")
	}
}

func TestRunEmptyText(t *testing.T) {
	e := New(testExtractionConfig(), farmToSchool(t), nil, nil)
	doc, err := e.Run(context.Background(), "HB1", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Entities == nil || doc.Relations == nil {
		t.Errorf("empty lists should be non-nil for JSON output")
	}
	if len(doc.Entities) != 0 || len(doc.Relations) != 0 {
		t.Errorf("expected empty document, got %d entities and %d relations", len(doc.Entities), len(doc.Relations))
	}
}

// --- batch ---

func writeText(t *testing.T, dir, billID, content string) string {
	t.Helper()
	path := filepath.Join(dir, "text", billID+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractBatch(t *testing.T) {
	dir := t.TempDir()
	billsDir := filepath.Join(dir, "bills")
	outDir := filepath.Join(dir, "extractions")
	hb := writeText(t, billsDir, "HB767", billText)
	writeText(t, billsDir, "SB2182", "The senate supports school gardens.")

	cfg := testExtractionConfig()
	cfg.BillsDir = billsDir
	cfg.OutputDir = outDir
	cfg.PatternsOnly = true
	e := New(cfg, farmToSchool(t), nil, nil)

	var buf bytes.Buffer
	summary, err := ExtractBatch(context.Background(), e, cfg, &buf)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Extracted != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("first run summary = %+v", summary)
	}

	doc, err := ReadResult(OutputPath(outDir, "HB767"))
	if err != nil {
		t.Fatalf("ReadResult: %v", err)
	}
	if doc.BillID != "HB767" || len(doc.Relations) == 0 {
		t.Errorf("document = %q with %d relations", doc.BillID, len(doc.Relations))
	}
	if !strings.Contains(buf.String(), "extracted HB767") {
		t.Errorf("progress output missing bill: %q", buf.String())
	}

	// Second run skips unchanged bills.
	buf.Reset()
	summary, err = ExtractBatch(context.Background(), e, cfg, &buf)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Skipped != 2 || summary.Extracted != 0 {
		t.Errorf("second run summary = %+v", summary)
	}

	// A touched bill is extracted again.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(hb, future, future); err != nil {
		t.Fatal(err)
	}
	summary, err = ExtractBatch(context.Background(), e, cfg, &buf)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Extracted != 1 || summary.Skipped != 1 {
		t.Errorf("after touch summary = %+v", summary)
	}

	// Force re-extracts everything.
	cfg.Force = true
	summary, err = ExtractBatch(context.Background(), e, cfg, &buf)
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if summary.Extracted != 2 {
		t.Errorf("forced summary = %+v", summary)
	}
}

func TestExtractBatchMissingTextDir(t *testing.T) {
	dir := t.TempDir()
	cfg := testExtractionConfig()
	cfg.BillsDir = filepath.Join(dir, "bills")
	cfg.OutputDir = filepath.Join(dir, "out")
	e := New(cfg, farmToSchool(t), nil, nil)

	if _, err := ExtractBatch(context.Background(), e, cfg, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing text directory")
	}
}

func TestExtractFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	e := New(testExtractionConfig(), farmToSchool(t), nil, nil)
	_, err := ExtractFile(context.Background(), e, "HB1", filepath.Join(dir, "nope.txt"), filepath.Join(dir, "out.json"))
	if err == nil {
		t.Error("expected error for missing input")
	}
}

func TestReadResultInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadResult(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestBatchSummary(t *testing.T) {
	s := BatchSummary{Extracted: 3, Skipped: 2, Failed: 1}
	if s.Total() != 6 {
		t.Errorf("Total = %d, want 6", s.Total())
	}
	if !s.HasFailures() {
		t.Error("HasFailures = false, want true")
	}
	if (BatchSummary{Extracted: 1}).HasFailures() {
		t.Error("HasFailures = true, want false")
	}
}
