// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge indexes extraction documents in a SQLite database so
// entities and relations can be queried across bills.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/billgraph/internal/acquire"
	"github.com/pdiddy/billgraph/internal/extract"
	"github.com/pdiddy/billgraph/pkg/types"
)

const dbFile = "billgraph.db"

// Store manages the knowledge base SQLite database.
type Store struct {
	db             *sql.DB
	extractionsDir string
	indexDir       string
	billsDir       string
	maxResults     int
}

// NewStore opens or creates the database at cfg.IndexDir/billgraph.db and
// creates the schema if it does not exist. billsDir locates bill metadata
// written by the acquire and convert stages.
func NewStore(cfg types.KnowledgeBaseConfig, billsDir string) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:             db,
		extractionsDir: cfg.ExtractionsDir,
		indexDir:       cfg.IndexDir,
		billsDir:       billsDir,
		maxResults:     maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bills (
			id TEXT PRIMARY KEY,
			chamber TEXT,
			number TEXT,
			draft TEXT,
			session INTEGER,
			measure_title TEXT,
			report_title TEXT,
			description TEXT,
			source_url TEXT,
			extraction_method TEXT,
			generated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			bill_id TEXT NOT NULL REFERENCES bills(id),
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			type TEXT NOT NULL,
			start_char INTEGER,
			end_char INTEGER,
			ner TEXT,
			normalized_ner TEXT,
			confidence REAL,
			context TEXT,
			source TEXT,
			UNIQUE(bill_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_bill ON entities(bill_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_text ON entities(text)`,
		`CREATE TABLE IF NOT EXISTS relations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			bill_id TEXT NOT NULL REFERENCES bills(id),
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object TEXT NOT NULL,
			relation_type TEXT,
			confidence REAL,
			context TEXT,
			source TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relations_bill ON relations(bill_id)`,
		`CREATE INDEX IF NOT EXISTS idx_relations_predicate ON relations(predicate)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			bill_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 over relation text, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='relations_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE relations_fts USING fts5(
				subject, predicate, object, context,
				content=relations, content_rowid=rowid)`,
			`CREATE TRIGGER relations_ai AFTER INSERT ON relations BEGIN
				INSERT INTO relations_fts(rowid, subject, predicate, object, context)
				VALUES (new.rowid, new.subject, new.predicate, new.object, new.context);
			END`,
			`CREATE TRIGGER relations_ad AFTER DELETE ON relations BEGIN
				INSERT INTO relations_fts(relations_fts, rowid, subject, predicate, object, context)
				VALUES ('delete', old.rowid, old.subject, old.predicate, old.object, old.context);
			END`,
			`CREATE TRIGGER relations_au AFTER UPDATE ON relations BEGIN
				INSERT INTO relations_fts(relations_fts, rowid, subject, predicate, object, context)
				VALUES ('delete', old.rowid, old.subject, old.predicate, old.object, old.context);
				INSERT INTO relations_fts(rowid, subject, predicate, object, context)
				VALUES (new.rowid, new.subject, new.predicate, new.object, new.context);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads extraction documents from the extractions directory and
// populates the database. Documents whose modification time matches the
// last indexed one are skipped; changed documents replace their bill's
// rows. When anything was written, export.yaml is refreshed.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.extractionsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading extraction directory %s: %w", s.extractionsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extract.OutputSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		billID := strings.TrimSuffix(entry.Name(), extract.OutputSuffix)
		filePath := filepath.Join(s.extractionsDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", billID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE bill_id = ?`, billID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", billID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		doc, err := extract.ReadResult(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", billID, err)
			summary.Failed++
			continue
		}

		bill := s.loadBillMetadata(billID)

		if err := s.ingestDocument(ctx, billID, doc, bill, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", billID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d entities, %d relations)\n", billID, len(doc.Entities), len(doc.Relations))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d entities, %d relations)\n", billID, len(doc.Entities), len(doc.Relations))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if _, err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, billID string, doc *types.ExtractionResult, bill *types.Bill, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		for _, table := range []string{"entities", "relations"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE bill_id = ?`, billID); err != nil {
				return fmt.Errorf("deleting old %s: %w", table, err)
			}
		}
	}

	if bill == nil {
		bill = &types.Bill{ID: billID}
	}
	measureTitle := bill.MeasureTitle
	if measureTitle == "" {
		measureTitle = doc.Metadata.MeasureTitle
	}
	generatedAt := ""
	if !doc.Metadata.GeneratedAt.IsZero() {
		generatedAt = doc.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, chamber, number, draft, session, measure_title, report_title,
			description, source_url, extraction_method, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			chamber=excluded.chamber, number=excluded.number, draft=excluded.draft,
			session=excluded.session, measure_title=excluded.measure_title,
			report_title=excluded.report_title, description=excluded.description,
			source_url=excluded.source_url, extraction_method=excluded.extraction_method,
			generated_at=excluded.generated_at`,
		billID, bill.Chamber, bill.Number, bill.Draft, bill.Session, measureTitle,
		bill.ReportTitle, bill.Description, bill.SourceURL,
		doc.Metadata.ExtractionMethod, generatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting bill: %w", err)
	}

	entStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entities (bill_id, id, text, type, start_char, end_char,
			ner, normalized_ner, confidence, context, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entity insert: %w", err)
	}
	defer entStmt.Close()

	for _, e := range doc.Entities {
		id := e.ID
		if id == "" {
			id = e.Type + ":" + e.Text
		}
		if _, err := entStmt.ExecContext(ctx,
			billID, id, e.Text, e.Type, e.StartChar, e.EndChar,
			e.NER, e.NormalizedNER, e.Confidence, e.Context, e.Source,
		); err != nil {
			return fmt.Errorf("inserting entity %s: %w", id, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO relations (bill_id, subject, predicate, object, relation_type,
			confidence, context, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing relation insert: %w", err)
	}
	defer relStmt.Close()

	for _, r := range doc.Relations {
		if _, err := relStmt.ExecContext(ctx,
			billID, r.Subject, r.Predicate, r.Object, r.RelationType,
			r.Confidence, r.Context, r.Source,
		); err != nil {
			return fmt.Errorf("inserting relation %q: %w", r.Predicate, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (bill_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(bill_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		billID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// loadBillMetadata returns the stored metadata record for billID, or nil
// when there is none.
func (s *Store) loadBillMetadata(billID string) *types.Bill {
	if s.billsDir == "" {
		return nil
	}
	bill, err := acquire.ReadMetadata(acquire.MetadataPath(s.billsDir, billID))
	if err != nil {
		return nil
	}
	return bill
}
