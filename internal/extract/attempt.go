// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/annotator"
	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Result holds the raw, uncanonicalized output of one extraction attempt.
type Result struct {
	Entities  []types.Entity
	Relations []types.Relation

	// Method names the strategy that produced the result.
	Method string

	// Notes describe what the attempt did (chunking, dropped spans).
	Notes []string
}

// Attempt is one extraction strategy. Attempts are tried in order and the
// first success wins.
type Attempt interface {
	Name() string
	Try(ctx context.Context, text string) (Result, error)
}

// Annotator abstracts the annotation server so tests can supply a fake.
type Annotator interface {
	Probe(ctx context.Context) error
	AnnotateChunks(ctx context.Context, chunks []string, offsets []int) (*annotator.Document, annotator.ChunkStats, error)
}

// PatternAttempt runs the pattern recognizer and relation extractor. It
// never fails.
type PatternAttempt struct {
	Table *patterns.Table
}

// Name implements Attempt.
func (a PatternAttempt) Name() string { return "patterns" }

// Try implements Attempt.
func (a PatternAttempt) Try(_ context.Context, text string) (Result, error) {
	return Result{
		Entities:  Recognize(text, a.Table),
		Relations: ExtractRelations(text, a.Table),
		Method:    a.Table.Source(),
	}, nil
}

// AnnotatorAttempt annotates text through the server, derives entities and
// relations from the annotation, and unions them with the pattern output.
// The whole attempt is bounded by Deadline.
type AnnotatorAttempt struct {
	Client         Annotator
	Table          *patterns.Table
	ChunkSize      int
	ChunkThreshold int
	Deadline       time.Duration
	SkipProbe      bool
	Log            *zap.Logger
}

// Name implements Attempt.
func (a AnnotatorAttempt) Name() string { return "annotator" }

// Try implements Attempt.
func (a AnnotatorAttempt) Try(ctx context.Context, text string) (Result, error) {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	if a.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Deadline)
		defer cancel()
	}

	if !a.SkipProbe {
		if err := a.Client.Probe(ctx); err != nil {
			return Result{}, err
		}
	}

	chunks := a.chunks(text)
	if len(chunks) == 0 {
		return Result{}, errors.New("no text to annotate")
	}
	joined, bases := joinChunks(chunks)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	doc, stats, err := a.Client.AnnotateChunks(ctx, texts, bases)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("annotator deadline exceeded after %d of %d chunks: %w", stats.Annotated, len(chunks), err)
	}

	ents, rels := FromAnnotations(doc, joined)
	mapped, dropped := mapEntities(ents, chunks, bases, text)
	if dropped > 0 {
		log.Debug("dropped annotator entities with unmappable spans", zap.Int("dropped", dropped))
	}

	res := Result{
		Entities:  append(Recognize(text, a.Table), mapped...),
		Relations: append(ExtractRelations(text, a.Table), rels...),
		Method:    "annotator+" + a.Table.Source(),
		Notes: []string{
			fmt.Sprintf("annotated %d of %d chunks (max %d bytes)", stats.Annotated, len(chunks), a.ChunkSize),
		},
	}
	if dropped > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("dropped %d annotator entities with unmappable spans", dropped))
	}
	return res, nil
}

func (a AnnotatorAttempt) chunks(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	size := a.ChunkSize
	if size <= 0 {
		size = types.DefaultChunkSize
	}
	if a.ChunkThreshold > 0 && len(text) <= a.ChunkThreshold {
		return []Chunk{wholeChunk(text)}
	}
	return ChunkText(text, size)
}

// joinChunks concatenates chunk texts with single spaces and returns the
// offset of each chunk in the result.
func joinChunks(chunks []Chunk) (string, []int) {
	var b strings.Builder
	bases := make([]int, len(chunks))
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte(' ')
		}
		bases[i] = b.Len()
		b.WriteString(c.Text)
	}
	return b.String(), bases
}

// mapEntities rewrites entity spans from joined-chunk offsets to source
// offsets. Entities whose mapped span does not spell the mention in the
// source are dropped.
func mapEntities(ents []types.Entity, chunks []Chunk, bases []int, source string) ([]types.Entity, int) {
	toSource := func(off int) (int, bool) {
		for i := len(chunks) - 1; i >= 0; i-- {
			if off >= bases[i] && off <= bases[i]+len(chunks[i].Text) {
				return chunks[i].ToSource(off - bases[i])
			}
		}
		return 0, false
	}

	var out []types.Entity
	dropped := 0
	for _, e := range ents {
		begin, ok1 := toSource(e.StartChar)
		end, ok2 := toSource(e.EndChar)
		if !ok1 || !ok2 || begin >= end || end > len(source) || !strings.EqualFold(source[begin:end], e.Text) {
			dropped++
			continue
		}
		e.StartChar, e.EndChar = begin, end
		out = append(out, e)
	}
	return out, dropped
}

// runAttempts tries each attempt in order and returns the first success
// along with a report for every attempt made.
func runAttempts(ctx context.Context, attempts []Attempt, text string, log *zap.Logger) (Result, []types.AttemptReport, error) {
	var reports []types.AttemptReport
	var errs []error
	for _, a := range attempts {
		start := time.Now()
		res, err := a.Try(ctx, text)
		rep := types.AttemptReport{Name: a.Name(), OK: err == nil, Duration: time.Since(start)}
		if err != nil {
			rep.Error = err.Error()
			reports = append(reports, rep)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
			log.Warn("extraction attempt failed, falling back",
				zap.String("attempt", a.Name()), zap.Duration("elapsed", rep.Duration), zap.Error(err))
			continue
		}
		reports = append(reports, rep)
		log.Debug("extraction attempt succeeded",
			zap.String("attempt", a.Name()),
			zap.Int("entities", len(res.Entities)),
			zap.Int("relations", len(res.Relations)),
			zap.Duration("elapsed", rep.Duration))
		return res, reports, nil
	}
	if len(errs) == 0 {
		return Result{}, reports, errors.New("no extraction attempts configured")
	}
	return Result{}, reports, errors.Join(errs...)
}
