// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Well-known entity types. The set is open: pattern tables and the
// annotator may introduce others.
const (
	EntityProgram          = "PROGRAM"
	EntityAgency           = "AGENCY"
	EntityGoal             = "GOAL"
	EntityReporting        = "REPORTING"
	EntityStatute          = "STATUTE"
	EntityPurpose          = "PURPOSE"
	EntityLegislativeBody  = "LEGISLATIVE_BODY"
	EntitySession          = "SESSION_IDENTIFIER"
	EntityLocation         = "LOCATION"
	EntityPerson           = "PERSON"
	EntityInterestGroup    = "INTEREST_GROUP"
	EntityHealthGoal       = "HEALTH_GOAL"
	EntityLegalSection     = "LEGAL_SECTION"
	EntityPosition         = "POSITION"
	EntityFunding          = "FUNDING"
	EntityEducationalSpace = "EDUCATIONAL_SPACE"
	EntityOrganization     = "ORGANIZATION"
	EntityProfession       = "PROFESSION"
)

// Entity is one occurrence of a typed mention in bill text.
//
// After canonicalization Text and NormalizedNER hold the canonical form and
// the offsets and context are those of the highest-confidence occurrence.
type Entity struct {
	// ID is derived from the entity type and canonical text. Empty until
	// the entity has been canonicalized.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	Text string `json:"text" yaml:"text"`
	Type string `json:"type" yaml:"type"`

	// StartChar and EndChar are byte offsets into the source text.
	StartChar int `json:"start_char" yaml:"start_char"`
	EndChar   int `json:"end_char" yaml:"end_char"`

	// NER is the raw tag reported by the producer (pattern type or annotator tag).
	NER           string `json:"ner,omitempty" yaml:"ner,omitempty"`
	NormalizedNER string `json:"normalized_ner,omitempty" yaml:"normalized_ner,omitempty"`

	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Context is a window of source text around the match.
	Context string `json:"context" yaml:"context"`

	// Source tags the producer, e.g. "patterns:farm-to-school" or "annotator_ner".
	Source string `json:"source" yaml:"source"`
}

// Relation is a (subject, predicate, object) triple. Subject and object are
// free text; they are joined to entities only by canonical string equality.
type Relation struct {
	Subject      string  `json:"subject" yaml:"subject"`
	Predicate    string  `json:"predicate" yaml:"predicate"`
	Object       string  `json:"object" yaml:"object"`
	RelationType string  `json:"relation_type,omitempty" yaml:"relation_type,omitempty"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
	Context      string  `json:"context" yaml:"context"`
	Source       string  `json:"source" yaml:"source"`
}

// AttemptReport records the outcome of one extraction attempt.
type AttemptReport struct {
	Name     string        `json:"name" yaml:"name"`
	OK       bool          `json:"ok" yaml:"ok"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// ExtractionMetadata summarizes an extraction run.
type ExtractionMetadata struct {
	RunID            string          `json:"run_id" yaml:"run_id"`
	GeneratedAt      time.Time       `json:"generated_at" yaml:"generated_at"`
	Profile          string          `json:"profile" yaml:"profile"`
	ExtractionMethod string          `json:"extraction_method" yaml:"extraction_method"`
	MeasureTitle     string          `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`
	TotalEntities    int             `json:"total_entities" yaml:"total_entities"`
	TotalRelations   int             `json:"total_relations" yaml:"total_relations"`
	EntityTypes      []string        `json:"entity_types" yaml:"entity_types"`
	RelationTypes    []string        `json:"relation_types" yaml:"relation_types"`
	Sources          []string        `json:"sources" yaml:"sources"`
	Enhancements     []string        `json:"enhancements,omitempty" yaml:"enhancements,omitempty"`
	Attempts         []AttemptReport `json:"attempts" yaml:"attempts"`
}

// ExtractionResult is the serialized output of extracting one bill.
type ExtractionResult struct {
	BillID    string             `json:"bill_id" yaml:"bill_id"`
	Version   string             `json:"version" yaml:"version"`
	Entities  []Entity           `json:"entities" yaml:"entities"`
	Relations []Relation         `json:"relations" yaml:"relations"`
	Metadata  ExtractionMetadata `json:"metadata" yaml:"metadata"`
}
