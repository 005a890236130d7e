// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/billgraph/internal/convert"
	"github.com/pdiddy/billgraph/pkg/types"
)

// QueryOptions holds parameters for knowledge base queries.
type QueryOptions struct {
	// Query is an FTS5 search over relation text. For entity queries it is
	// a case-insensitive substring of the entity text.
	Query string

	// BillID filters by bill.
	BillID string

	// EntityType filters entities by type (e.g. "AGENCY").
	EntityType string

	// Predicate and RelationType filter relations.
	Predicate    string
	RelationType string

	// MinConfidence drops rows below this confidence.
	MinConfidence float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.BillID == "" && q.EntityType == "" &&
		q.Predicate == "" && q.RelationType == "" && q.MinConfidence == 0
}

// EntityResult is an indexed entity with its bill's measure title.
type EntityResult struct {
	types.Entity `yaml:",inline"`
	BillID       string `json:"bill_id" yaml:"bill_id"`
	MeasureTitle string `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`
}

// RelationResult is an indexed relation with its bill's measure title.
type RelationResult struct {
	types.Relation `yaml:",inline"`
	BillID         string `json:"bill_id" yaml:"bill_id"`
	MeasureTitle   string `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`
}

// BillMention records how often an entity text occurs in one bill.
type BillMention struct {
	BillID       string `json:"bill_id" yaml:"bill_id"`
	MeasureTitle string `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`
	Type         string `json:"type" yaml:"type"`
	Count        int    `json:"count" yaml:"count"`
}

func (s *Store) limit(opts QueryOptions) int {
	if opts.MaxResults > 0 {
		return opts.MaxResults
	}
	return s.maxResults
}

// Entities lists indexed entities matching opts, ordered by bill and
// position in the bill text.
func (s *Store) Entities(ctx context.Context, opts QueryOptions) ([]EntityResult, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT e.bill_id, e.id, e.text, e.type, e.start_char, e.end_char,
			e.ner, e.normalized_ner, e.confidence, e.context, e.source, b.measure_title
		FROM entities e
		LEFT JOIN bills b ON e.bill_id = b.id
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND lower(e.text) LIKE ?`)
		args = append(args, "%"+strings.ToLower(opts.Query)+"%")
	}
	if opts.BillID != "" {
		qb.WriteString(` AND e.bill_id = ?`)
		args = append(args, opts.BillID)
	}
	if opts.EntityType != "" {
		qb.WriteString(` AND e.type = ?`)
		args = append(args, strings.ToUpper(opts.EntityType))
	}
	if opts.MinConfidence > 0 {
		qb.WriteString(` AND e.confidence >= ?`)
		args = append(args, opts.MinConfidence)
	}
	qb.WriteString(` ORDER BY e.bill_id, e.start_char, e.id LIMIT ?`)
	args = append(args, s.limit(opts))

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var results []EntityResult
	for rows.Next() {
		var (
			er                   EntityResult
			ner, norm, ctxt, src sql.NullString
			title                sql.NullString
		)
		if err := rows.Scan(
			&er.BillID, &er.ID, &er.Text, &er.Type, &er.StartChar, &er.EndChar,
			&ner, &norm, &er.Confidence, &ctxt, &src, &title,
		); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		er.NER = ner.String
		er.NormalizedNER = norm.String
		er.Context = ctxt.String
		er.Source = src.String
		er.MeasureTitle = title.String
		results = append(results, er)
	}
	return results, rows.Err()
}

// Relations lists indexed relations matching opts. Full-text queries are
// ranked by relevance; filter-only queries are ordered by bill and
// insertion order.
func (s *Store) Relations(ctx context.Context, opts QueryOptions) ([]RelationResult, error) {
	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.bill_id, r.subject, r.predicate, r.object, r.relation_type,
				r.confidence, r.context, r.source, b.measure_title
			FROM relations_fts
			JOIN relations r ON r.rowid = relations_fts.rowid
			LEFT JOIN bills b ON r.bill_id = b.id
			WHERE relations_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.bill_id, r.subject, r.predicate, r.object, r.relation_type,
				r.confidence, r.context, r.source, b.measure_title
			FROM relations r
			LEFT JOIN bills b ON r.bill_id = b.id
			WHERE 1=1`)
	}

	if opts.BillID != "" {
		qb.WriteString(` AND r.bill_id = ?`)
		args = append(args, opts.BillID)
	}
	if opts.Predicate != "" {
		qb.WriteString(` AND r.predicate = ?`)
		args = append(args, opts.Predicate)
	}
	if opts.RelationType != "" {
		qb.WriteString(` AND r.relation_type = ?`)
		args = append(args, opts.RelationType)
	}
	if opts.MinConfidence > 0 {
		qb.WriteString(` AND r.confidence >= ?`)
		args = append(args, opts.MinConfidence)
	}

	if useFTS {
		qb.WriteString(` ORDER BY relations_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.bill_id, r.rowid`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, s.limit(opts))

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	var results []RelationResult
	for rows.Next() {
		var (
			rr                 RelationResult
			relType, ctxt, src sql.NullString
			title              sql.NullString
		)
		if err := rows.Scan(
			&rr.BillID, &rr.Subject, &rr.Predicate, &rr.Object, &relType,
			&rr.Confidence, &ctxt, &src, &title,
		); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rr.RelationType = relType.String
		rr.Context = ctxt.String
		rr.Source = src.String
		rr.MeasureTitle = title.String
		results = append(results, rr)
	}
	return results, rows.Err()
}

// EntityBills finds every bill mentioning an entity whose text equals text,
// ignoring case. Results are ordered by mention count, then bill.
func (s *Store) EntityBills(ctx context.Context, text string) ([]BillMention, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.bill_id, b.measure_title, e.type, count(*)
		FROM entities e
		LEFT JOIN bills b ON e.bill_id = b.id
		WHERE lower(e.text) = lower(?)
		GROUP BY e.bill_id, e.type
		ORDER BY count(*) DESC, e.bill_id`, strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("querying entity bills: %w", err)
	}
	defer rows.Close()

	var out []BillMention
	for rows.Next() {
		var (
			m     BillMention
			title sql.NullString
		)
		if err := rows.Scan(&m.BillID, &title, &m.Type, &m.Count); err != nil {
			return nil, fmt.Errorf("scanning entity bill: %w", err)
		}
		m.MeasureTitle = title.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// Stats summarizes the index.
type Stats struct {
	Bills      int            `json:"bills" yaml:"bills"`
	Entities   int            `json:"entities" yaml:"entities"`
	Relations  int            `json:"relations" yaml:"relations"`
	ByType     map[string]int `json:"entities_by_type" yaml:"entities_by_type"`
	ByRelation map[string]int `json:"relations_by_type" yaml:"relations_by_type"`
}

// Stats counts bills, entities and relations in the index.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByType: map[string]int{}, ByRelation: map[string]int{}}
	for _, q := range []struct {
		query string
		dest  *int
	}{
		{`SELECT count(*) FROM bills`, &st.Bills},
		{`SELECT count(*) FROM entities`, &st.Entities},
		{`SELECT count(*) FROM relations`, &st.Relations},
	} {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return st, fmt.Errorf("counting: %w", err)
		}
	}
	if err := s.groupCount(ctx, `SELECT type, count(*) FROM entities GROUP BY type`, st.ByType); err != nil {
		return st, err
	}
	if err := s.groupCount(ctx, `SELECT coalesce(relation_type, ''), count(*) FROM relations GROUP BY relation_type`, st.ByRelation); err != nil {
		return st, err
	}
	return st, nil
}

func (s *Store) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("grouping: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning group: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}

// Trace returns the line of converted bill text that holds the indexed
// entity entityID, read from the bill's text file.
func (s *Store) Trace(ctx context.Context, billID, entityID string) (string, error) {
	var start, end int
	err := s.db.QueryRowContext(ctx,
		`SELECT start_char, end_char FROM entities WHERE bill_id = ? AND id = ?`,
		billID, entityID,
	).Scan(&start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("entity %s not found in %s", entityID, billID)
		}
		return "", fmt.Errorf("looking up entity: %w", err)
	}

	path := convert.TextPath(s.billsDir, billID)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return lineAround(string(content), start, end), nil
}

// lineAround returns the full lines of text covering [start, end).
func lineAround(text string, start, end int) string {
	if start < 0 || start > len(text) {
		return ""
	}
	if end < start || end > len(text) {
		end = start
	}
	from := strings.LastIndexByte(text[:start], '\n') + 1
	to := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		to = end + i
	}
	return strings.TrimSpace(text[from:to])
}
