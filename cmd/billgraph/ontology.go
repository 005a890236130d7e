// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/billgraph/internal/extract"
	"github.com/pdiddy/billgraph/internal/ontology"
	"github.com/pdiddy/billgraph/internal/patterns"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Export extraction documents as an ontology",
	Long: `Ontology combines one or more extraction documents into a single
ontology. Entity types become classes, predicates become object
properties, and entities become named individuals linked to the bills
that mention them. Without arguments every document in the extractions
directory is included.`,
}

var ontologyOWLCmd = &cobra.Command{
	Use:   "owl [extraction files...]",
	Short: "Write OWL RDF/XML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOntology(cmd, args, ".owl", ontology.WriteOWL)
	},
}

var ontologyGraphMLCmd = &cobra.Command{
	Use:   "graphml [extraction files...]",
	Short: "Write a GraphML network",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOntology(cmd, args, ".graphml", ontology.WriteGraphML)
	},
}

func runOntology(cmd *cobra.Command, args []string, ext string, write func(io.Writer, *ontology.Ontology) error) error {
	cfg := ontologyConfig()

	paths := args
	if len(paths) == 0 {
		dir := knowledgeBaseConfig().ExtractionsDir
		found, err := filepath.Glob(filepath.Join(dir, "*"+extract.OutputSuffix))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no extraction documents in %s", dir)
		}
		sort.Strings(found)
		paths = found
	}

	docs, err := ontology.LoadDocuments(paths)
	if err != nil {
		return err
	}

	opts := ontology.Options{BaseIRI: cfg.BaseIRI, MinConfidence: cfg.MinConfidence}
	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		tbl, err := patterns.Profile(profile)
		if err != nil {
			return err
		}
		opts.Table = tbl
	}

	o, err := ontology.Build(docs, opts)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = defaultOntologyName(docs[0].BillID, len(docs))
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(cfg.OutputDir, name+ext)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := write(f, o); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}

	logger.Debug("ontology written", zap.String("path", outPath), zap.Int("documents", len(docs)))
	fmt.Printf("wrote %s (%d bills, %d classes, %d individuals, %d assertions)\n",
		outPath, len(o.Bills), len(o.Classes), len(o.Individuals), len(o.Assertions))
	return nil
}

// defaultOntologyName names single-bill output after the bill and combined
// output after the document count.
func defaultOntologyName(firstBill string, n int) string {
	if n == 1 {
		return strings.ToLower(firstBill) + "_ontology"
	}
	return fmt.Sprintf("combined_%d_bills_ontology", n)
}

func init() {
	pf := ontologyCmd.PersistentFlags()
	pf.String("name", "", "output file name without extension")
	pf.String("base-iri", "", "ontology IRI (default http://example.org/legislativeontology)")
	pf.String("output-dir", "ontology", "directory for ontology files")
	pf.Float64("min-confidence", 0, "drop entities and relations below this confidence")
	pf.String("profile", "farm-to-school", "pattern profile whose predicate map names properties (empty uses raw predicates)")
	bindFlag("ontology.base_iri", pf.Lookup("base-iri"))
	bindFlag("ontology.output_dir", pf.Lookup("output-dir"))
	bindFlag("ontology.min_confidence", pf.Lookup("min-confidence"))

	ontologyCmd.AddCommand(ontologyOWLCmd)
	ontologyCmd.AddCommand(ontologyGraphMLCmd)

	rootCmd.AddCommand(ontologyCmd)
}
