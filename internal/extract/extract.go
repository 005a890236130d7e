// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract identifies typed entities and relationship triples in
// bill text. Pattern tables always run; an external annotator is tried
// first when configured and the pipeline falls back to patterns alone when
// it is unavailable or too slow.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/canonical"
	"github.com/pdiddy/billgraph/internal/convert"
	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Version is written into every extraction document.
const Version = "billgraph-extraction/1"

// OutputSuffix ends every extraction document file name.
const OutputSuffix = "-extraction.json"

const (
	textDir       = "text"
	textExtension = ".txt"
)

// Extractor runs the attempt chain and canonicalizes the winner.
type Extractor struct {
	table    *patterns.Table
	canon    *canonical.Canonicalizer
	attempts []Attempt
	tieBreak types.RelationTieBreak
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

// New builds an Extractor. When client is nil or cfg.PatternsOnly is set
// only the pattern attempt runs. A nil logger disables logging.
func New(cfg types.ExtractionConfig, tbl *patterns.Table, client Annotator, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	tieBreak := cfg.TieBreak
	if tieBreak == "" {
		tieBreak = types.TieBreakFirst
	}

	var attempts []Attempt
	if client != nil && !cfg.PatternsOnly {
		attempts = append(attempts, AnnotatorAttempt{
			Client:         client,
			Table:          tbl,
			ChunkSize:      cfg.ChunkSize,
			ChunkThreshold: cfg.ChunkThreshold,
			Deadline:       cfg.Deadline,
			SkipProbe:      cfg.SkipProbe,
			Log:            log,
		})
	}
	attempts = append(attempts, PatternAttempt{Table: tbl})

	return &Extractor{
		table:    tbl,
		canon:    canonical.New(tbl.Aliases(), canonical.WithTieBreak(tieBreak)),
		attempts: attempts,
		tieBreak: tieBreak,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// ExtractWithPatterns runs only the pattern table over text.
func (e *Extractor) ExtractWithPatterns(text string) Result {
	res, _ := PatternAttempt{Table: e.table}.Try(context.Background(), text)
	return res
}

// ExtractAll runs the attempt chain and returns the first successful raw
// result with a report of every attempt.
func (e *Extractor) ExtractAll(ctx context.Context, text string) (Result, []types.AttemptReport, error) {
	return runAttempts(ctx, e.attempts, text, e.log)
}

// Run extracts, canonicalizes, and wraps the result in a document.
func (e *Extractor) Run(ctx context.Context, billID, text string) (*types.ExtractionResult, error) {
	res, reports, err := e.ExtractAll(ctx, text)
	if err != nil {
		return nil, err
	}

	ents := e.canon.Entities(res.Entities)
	rels := e.canon.Relations(res.Relations)
	if ents == nil {
		ents = []types.Entity{}
	}
	if rels == nil {
		rels = []types.Relation{}
	}

	notes := append([]string{
		"alias canonicalization",
		fmt.Sprintf("entity merge by highest confidence; relation dedup (%s)", e.tieBreak),
	}, res.Notes...)

	return &types.ExtractionResult{
		BillID:    billID,
		Version:   Version,
		Entities:  ents,
		Relations: rels,
		Metadata: types.ExtractionMetadata{
			RunID:            e.newID(),
			GeneratedAt:      e.now().UTC(),
			Profile:          e.table.Name(),
			ExtractionMethod: res.Method,
			MeasureTitle:     convert.Segment(text).MeasureTitle,
			TotalEntities:    len(ents),
			TotalRelations:   len(rels),
			EntityTypes:      distinct(ents, func(x types.Entity) string { return x.Type }),
			RelationTypes:    distinct(rels, func(x types.Relation) string { return x.RelationType }),
			Sources:          sources(ents, rels),
			Enhancements:     notes,
			Attempts:         reports,
		},
	}, nil
}

func distinct[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, it := range items {
		k := key(it)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sources(ents []types.Entity, rels []types.Relation) []string {
	all := distinct(ents, func(x types.Entity) string { return x.Source })
	all = append(all, distinct(rels, func(x types.Relation) string { return x.Source })...)
	return distinct(all, func(s string) string { return s })
}

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of bills processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any bills failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ExtractFile extracts one text file and writes its document to outPath.
// A missing or unreadable input is an error; annotator problems are not.
func ExtractFile(ctx context.Context, e *Extractor, billID, textPath, outPath string) (*types.ExtractionResult, error) {
	data, err := os.ReadFile(textPath)
	if err != nil {
		return nil, fmt.Errorf("reading bill text %s: %w", textPath, err)
	}
	result, err := e.Run(ctx, billID, string(data))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeResult(outPath, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractBatch processes every .txt file in billsDir/text/ and writes
// documents to cfg.OutputDir. Unchanged bills are skipped unless cfg.Force
// is set.
func ExtractBatch(ctx context.Context, e *Extractor, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	inDir := filepath.Join(cfg.BillsDir, textDir)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading text directory %s: %w", inDir, err)
	}

	var summary BatchSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), textExtension) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		billID := strings.TrimSuffix(entry.Name(), textExtension)
		textPath := filepath.Join(inDir, entry.Name())
		outPath := OutputPath(cfg.OutputDir, billID)

		if !cfg.Force {
			changed, err := hasChanged(textPath, outPath)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", billID, err)
				summary.Failed++
				continue
			}
			if !changed {
				fmt.Fprintf(w, "skipped %s\n", billID)
				summary.Skipped++
				continue
			}
		}

		fmt.Fprintf(w, "extracting %s\n", billID)
		result, err := ExtractFile(ctx, e, billID, textPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", billID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "extracted %s (%d entities, %d relations, %s)\n",
			billID, len(result.Entities), len(result.Relations), result.Metadata.ExtractionMethod)
		summary.Extracted++
	}
	return summary, nil
}

// OutputPath returns the document path for billID under dir.
func OutputPath(dir, billID string) string {
	return filepath.Join(dir, billID+OutputSuffix)
}

// ReadResult loads an extraction document.
func ReadResult(path string) (*types.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extraction %s: %w", path, err)
	}
	var r types.ExtractionResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing extraction %s: %w", path, err)
	}
	return &r, nil
}

// hasChanged reports whether the text file is newer than the output file.
// Returns true if the output does not exist or the text is more recent.
func hasChanged(textPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(textPath)
	if err != nil {
		return false, fmt.Errorf("stat text %s: %w", textPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals the ExtractionResult as indented JSON.
func writeResult(path string, result *types.ExtractionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
