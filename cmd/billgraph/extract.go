// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/annotator"
	"github.com/pdiddy/billgraph/internal/extract"
	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text files...]",
	Short: "Extract entities and relations from bill text",
	Long: `Extract reads plain bill text and writes <bill>-extraction.json documents
holding typed entities, relationship triples, and run metadata.

The annotator server is tried first and extraction falls back to the pattern
table when it is unreachable, too slow, or disabled with --patterns. Without
arguments every file in bills/text/ is processed and bills whose output is
newer than their text are skipped unless --force is given. With arguments
each file is extracted and a missing file is an error.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.BoolP("patterns", "p", false, "use the pattern table only, skipping the annotator")
	f.BoolP("fast", "f", false, "alias for --patterns")
	f.BoolP("memory-efficient", "m", false, "send smaller chunks to the annotator")
	f.Bool("no-probe", false, "skip the annotator liveness probe")
	f.String("profile", "", "built-in pattern profile (default farm-to-school)")
	f.String("patterns-file", "", "YAML pattern table overriding --profile")
	f.String("tie-break", "", "duplicate relation policy: first or confidence (default first)")
	f.Bool("force", false, "re-extract bills whose output is up to date")
	f.String("bills-dir", "bills", "base directory for bills (contains text/)")
	f.String("output-dir", "extractions", "directory for extraction documents")
	f.String("annotator-url", "", "annotator server URL (default http://localhost:9000)")

	bindFlag("extraction.skip_probe", f.Lookup("no-probe"))
	bindFlag("extraction.profile", f.Lookup("profile"))
	bindFlag("extraction.patterns_file", f.Lookup("patterns-file"))
	bindFlag("extraction.tie_break", f.Lookup("tie-break"))
	bindFlag("extraction.force", f.Lookup("force"))
	bindFlag("extraction.bills_dir", f.Lookup("bills-dir"))
	bindFlag("extraction.output_dir", f.Lookup("output-dir"))

	rootCmd.AddCommand(extractCmd)
}

// loadTable returns the pattern table named by cfg.
func loadTable(cfg types.ExtractionConfig) (*patterns.Table, error) {
	if cfg.PatternsFile != "" {
		return patterns.Load(cfg.PatternsFile)
	}
	return patterns.Profile(cfg.Profile)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractionConfig()
	if p, _ := cmd.Flags().GetBool("patterns"); p {
		cfg.PatternsOnly = true
	}
	if fast, _ := cmd.Flags().GetBool("fast"); fast {
		cfg.PatternsOnly = true
	}
	if m, _ := cmd.Flags().GetBool("memory-efficient"); m {
		cfg.UseMemoryEfficientChunks()
	}
	switch cfg.TieBreak {
	case types.TieBreakFirst, types.TieBreakConfidence:
	default:
		return fmt.Errorf("unsupported tie-break %q: use first or confidence", cfg.TieBreak)
	}

	tbl, err := loadTable(cfg)
	if err != nil {
		return err
	}

	var client extract.Annotator
	if !cfg.PatternsOnly {
		client = annotator.NewClient(annotatorConfig(cmd, "annotator-url"), nil, logger)
	}
	ex := extract.New(cfg, tbl, client, logger)
	logger.Debug("extractor ready",
		zap.String("patterns", tbl.Name()),
		zap.Bool("patterns_only", cfg.PatternsOnly),
		zap.Int("chunk_size", cfg.ChunkSize))

	if len(args) == 0 {
		summary, err := extract.ExtractBatch(cmd.Context(), ex, cfg, os.Stdout)
		fmt.Printf("\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
			summary.Extracted, summary.Skipped, summary.Failed, summary.Total())
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d bill(s) failed extraction", summary.Failed)
		}
		return nil
	}

	for _, path := range args {
		billID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := extract.OutputPath(cfg.OutputDir, billID)
		result, err := extract.ExtractFile(cmd.Context(), ex, billID, path, outPath)
		if err != nil {
			return err
		}
		fmt.Printf("extracted %s (%d entities, %d relations, %s) -> %s\n",
			billID, len(result.Entities), len(result.Relations), result.Metadata.ExtractionMethod, outPath)
	}
	return nil
}
