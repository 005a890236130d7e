// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/billgraph/internal/knowledge"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge base (store, query, export)",
	Long: `Knowledge manages a local SQLite index built from extraction documents.
Use subcommands to index documents, query entities and relations, trace an
entity back to its bill text, or export the index.`,
}

// --- store subcommand ---

var knowledgeStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Index extraction documents into the knowledge base",
	Long: `Store reads <bill>-extraction.json files from the extractions directory,
ingests them into a SQLite database with FTS5 indexing over relations, and
writes index/export.yaml. Unchanged documents are skipped on later runs.`,
	Args: cobra.NoArgs,
	RunE: runKnowledgeStore,
}

func runKnowledgeStore(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- entities subcommand ---

var knowledgeEntitiesCmd = &cobra.Command{
	Use:   "entities [text]",
	Short: "List indexed entities matching text and filters",
	RunE:  runKnowledgeEntities,
}

func runKnowledgeEntities(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Entities(cmd.Context(), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-18s  %-40s  %-10s  %s\n", "ID", "Type", "Text", "Bill", "Conf")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 92))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-12s  %-18s  %-40s  %-10s  %.2f\n",
			r.ID, truncate(r.Type, 18), truncate(r.Text, 40), truncate(r.BillID, 10), r.Confidence)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- relations subcommand ---

var knowledgeRelationsCmd = &cobra.Command{
	Use:   "relations [query]",
	Short: "Search indexed relations with full-text search and filters",
	Long: `Relations searches relation subjects, predicates, objects, and context
using FTS5, structured filters (bill, predicate, relation type, confidence),
or both. Full-text results are ordered by relevance.`,
	RunE: runKnowledgeRelations,
}

func runKnowledgeRelations(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Relations(cmd.Context(), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-16s  %-30s  %-10s  %s\n",
		"Rank", "Subject", "Predicate", "Object", "Bill", "Conf")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 106))
	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-16s  %-30s  %-10s  %.2f\n",
			i+1, truncate(r.Subject, 30), truncate(r.Predicate, 16), truncate(r.Object, 30),
			truncate(r.BillID, 10), r.Confidence)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- bills subcommand ---

var knowledgeBillsCmd = &cobra.Command{
	Use:   "bills <entity text>",
	Short: "List the bills that mention an entity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKnowledgeBills,
}

func runKnowledgeBills(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	mentions, err := store.EntityBills(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(mentions)
	}
	if len(mentions) == 0 {
		fmt.Println("No bills mention this entity.")
		return nil
	}
	for _, m := range mentions {
		fmt.Printf("%-12s  %-18s  %3d  %s\n", m.BillID, m.Type, m.Count, m.MeasureTitle)
	}
	return nil
}

// --- stats subcommand ---

var knowledgeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge base counts",
	Args:  cobra.NoArgs,
	RunE:  runKnowledgeStats,
}

func runKnowledgeStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(st)
	}

	fmt.Printf("Bills:     %d\n", st.Bills)
	fmt.Printf("Entities:  %d\n", st.Entities)
	printCounts(st.ByType)
	fmt.Printf("Relations: %d\n", st.Relations)
	printCounts(st.ByRelation)
	return nil
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %-24s %d\n", name, counts[k])
	}
}

// --- trace subcommand ---

var knowledgeTraceCmd = &cobra.Command{
	Use:   "trace <bill> <entity-id>",
	Short: "Show the bill text line an entity was extracted from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		text, err := store.Trace(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to YAML or JSON",
	Long: `Export writes every indexed entity and the (optionally filtered)
relations to index/export.yaml or index/export.json.`,
	RunE: runKnowledgeExport,
}

func runKnowledgeExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openStore() (*knowledge.Store, error) {
	return knowledge.NewStore(knowledgeBaseConfig(), knowledgeBillsDir())
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	billID, _ := cmd.Flags().GetString("bill")
	entityType, _ := cmd.Flags().GetString("type")
	predicate, _ := cmd.Flags().GetString("predicate")
	relationType, _ := cmd.Flags().GetString("relation-type")
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	limit, _ := cmd.Flags().GetInt("limit")

	return knowledge.QueryOptions{
		Query:         queryText,
		BillID:        billID,
		EntityType:    entityType,
		Predicate:     predicate,
		RelationType:  relationType,
		MinConfidence: minConf,
		MaxResults:    limit,
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	pf := knowledgeCmd.PersistentFlags()
	pf.String("extractions-dir", "extractions", "directory holding <bill>-extraction.json files")
	pf.String("index-dir", "index", "directory for the SQLite database and exports")
	pf.String("bills-dir", "bills", "base directory for bills (contains metadata/, text/)")
	pf.Int("max-results", 20, "default maximum number of query results")
	bindFlag("knowledge_base.extractions_dir", pf.Lookup("extractions-dir"))
	bindFlag("knowledge_base.index_dir", pf.Lookup("index-dir"))
	bindFlag("knowledge_base.bills_dir", pf.Lookup("bills-dir"))
	bindFlag("knowledge_base.max_results", pf.Lookup("max-results"))

	// Query flags.
	for _, c := range []*cobra.Command{knowledgeEntitiesCmd, knowledgeRelationsCmd, knowledgeExportCmd} {
		c.Flags().String("query", "", "search text")
		c.Flags().String("bill", "", "filter by bill ID")
		c.Flags().Float64("min-confidence", 0, "drop results below this confidence")
		c.Flags().Int("limit", 0, "maximum results (0 = use default)")
	}
	knowledgeEntitiesCmd.Flags().String("type", "", "filter by entity type, e.g. PROGRAM or AGENCY")
	for _, c := range []*cobra.Command{knowledgeRelationsCmd, knowledgeExportCmd} {
		c.Flags().String("predicate", "", "filter by predicate")
		c.Flags().String("relation-type", "", "filter by relation type")
	}
	for _, c := range []*cobra.Command{knowledgeEntitiesCmd, knowledgeRelationsCmd, knowledgeBillsCmd, knowledgeStatsCmd} {
		c.Flags().Bool("json", false, "output results as JSON")
	}

	// Export flags.
	knowledgeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Wire subcommands.
	knowledgeCmd.AddCommand(knowledgeStoreCmd)
	knowledgeCmd.AddCommand(knowledgeEntitiesCmd)
	knowledgeCmd.AddCommand(knowledgeRelationsCmd)
	knowledgeCmd.AddCommand(knowledgeBillsCmd)
	knowledgeCmd.AddCommand(knowledgeStatsCmd)
	knowledgeCmd.AddCommand(knowledgeTraceCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
