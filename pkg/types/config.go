package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "billgraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// Session is the legislative session year used to build bill URLs.
	Session int `json:"session" yaml:"session"`

	// BillsDir is the base directory for bills (contains html/, metadata/, text/).
	BillsDir string `json:"bills_dir" yaml:"bills_dir"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// BillsDir is the base directory for bills (contains html/, metadata/, text/).
	BillsDir string `json:"bills_dir" yaml:"bills_dir"`

	// Force reconverts bills whose text already exists.
	Force bool `json:"force" yaml:"force"`
}

// RelationTieBreak selects which duplicate relation survives deduplication.
type RelationTieBreak string

const (
	// TieBreakFirst keeps the first relation seen for a key.
	TieBreakFirst RelationTieBreak = "first"

	// TieBreakConfidence keeps the highest-confidence relation for a key,
	// at the position of the first one seen.
	TieBreakConfidence RelationTieBreak = "confidence"
)

// AnnotatorConfig holds settings for the external annotator server.
type AnnotatorConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the annotator server base URL (default http://localhost:9000).
	URL string `json:"url" yaml:"url"`

	// Annotators is the comma-separated annotator pipeline requested per chunk.
	Annotators string `json:"annotators" yaml:"annotators"`

	// ServerTimeout is passed to the server as its own processing timeout.
	ServerTimeout time.Duration `json:"server_timeout" yaml:"server_timeout"`

	// MaxRetries bounds retries on 429/503 responses (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Username and Password enable basic auth when both are set.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Image is the container image used by "annotator start".
	Image string `json:"image" yaml:"image"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// BillsDir is the base directory for bills (contains text/).
	BillsDir string `json:"bills_dir" yaml:"bills_dir"`

	// OutputDir receives <bill>-extraction.json files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Profile names a built-in pattern table; PatternsFile overrides it.
	Profile      string `json:"profile" yaml:"profile"`
	PatternsFile string `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty"`

	// PatternsOnly skips the external annotator entirely.
	PatternsOnly bool `json:"patterns_only" yaml:"patterns_only"`

	// SkipProbe skips the annotator liveness probe.
	SkipProbe bool `json:"skip_probe" yaml:"skip_probe"`

	// ChunkSize is the maximum chunk size in bytes sent to the annotator (default 1500).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkThreshold is the text size above which text is chunked (default 2000).
	ChunkThreshold int `json:"chunk_threshold" yaml:"chunk_threshold"`

	// Deadline is the wall-clock limit on the annotator attempt (default 5m).
	Deadline time.Duration `json:"deadline" yaml:"deadline"`

	// TieBreak selects the relation deduplication policy.
	TieBreak RelationTieBreak `json:"tie_break" yaml:"tie_break"`

	// Force re-extracts bills whose output is newer than the input.
	Force bool `json:"force" yaml:"force"`
}

// Chunk sizes for normal and memory-conservative annotation.
const (
	DefaultChunkSize         = 1500
	MemoryEfficientChunkSize = 1000
)

// UseMemoryEfficientChunks switches to the smaller chunk size and caps the
// chunking threshold at it, so no single request exceeds the chunk size.
func (c *ExtractionConfig) UseMemoryEfficientChunks() {
	c.ChunkSize = MemoryEfficientChunkSize
	if c.ChunkThreshold > c.ChunkSize {
		c.ChunkThreshold = c.ChunkSize
	}
}

// KnowledgeBaseConfig holds settings for the knowledge base stage.
type KnowledgeBaseConfig struct {
	// ExtractionsDir holds the extraction JSON files to ingest.
	ExtractionsDir string `json:"extractions_dir" yaml:"extractions_dir"`

	// IndexDir holds the SQLite database and exports.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// OntologyConfig holds settings for ontology export.
type OntologyConfig struct {
	// BaseIRI is the ontology IRI; individuals are "<BaseIRI>#<name>".
	BaseIRI string `json:"base_iri" yaml:"base_iri"`

	// OutputDir receives .owl and .graphml files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MinConfidence drops entities and relations below this confidence.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format"`

	// File, when set, receives logs with size-based rotation instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// MaxSizeMB, MaxBackups and MaxAgeDays configure rotation of File.
	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Acquisition   AcquisitionConfig   `json:"acquisition" yaml:"acquisition"`
	Conversion    ConversionConfig    `json:"conversion" yaml:"conversion"`
	Annotator     AnnotatorConfig     `json:"annotator" yaml:"annotator"`
	Extraction    ExtractionConfig    `json:"extraction" yaml:"extraction"`
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base"`
	Ontology      OntologyConfig      `json:"ontology" yaml:"ontology"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging"`
}

// DefaultAnnotatorConfig returns the settings for a local CoreNLP server.
func DefaultAnnotatorConfig() AnnotatorConfig {
	return AnnotatorConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "billgraph/0.1",
		},
		URL:           "http://localhost:9000",
		Annotators:    "tokenize,ssplit,pos,lemma,ner,depparse,openie",
		ServerTimeout: 30 * time.Second,
		MaxRetries:    2,
		Image:         "nlpbox/corenlp:latest",
	}
}

// DefaultExtractionConfig returns extraction settings with the documented defaults.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		BillsDir:       "bills",
		OutputDir:      "extractions",
		Profile:        "farm-to-school",
		ChunkSize:      DefaultChunkSize,
		ChunkThreshold: 2000,
		Deadline:       5 * time.Minute,
		TieBreak:       TieBreakFirst,
	}
}

// DefaultAcquisitionConfig returns acquisition settings for the current session.
func DefaultAcquisitionConfig() AcquisitionConfig {
	return AcquisitionConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "billgraph/0.1",
		},
		DownloadDelay: time.Second,
		Session:       time.Now().Year(),
		BillsDir:      "bills",
	}
}

// DefaultKnowledgeBaseConfig returns knowledge base settings.
func DefaultKnowledgeBaseConfig() KnowledgeBaseConfig {
	return KnowledgeBaseConfig{
		ExtractionsDir: "extractions",
		IndexDir:       "index",
		MaxResults:     20,
	}
}

// DefaultOntologyConfig returns ontology export settings.
func DefaultOntologyConfig() OntologyConfig {
	return OntologyConfig{
		BaseIRI:   "http://example.org/legislativeontology",
		OutputDir: "ontology",
	}
}

// DefaultLoggingConfig logs info and above to stderr in console format.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}
