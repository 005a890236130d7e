// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the state of HTML-to-text conversion for a bill.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Bill holds metadata and file paths for an acquired bill draft.
type Bill struct {
	// ID is a slug derived from the bill identifier (e.g. "hb767-hd2").
	ID string `json:"id" yaml:"id"`

	// Chamber is "HB" or "SB".
	Chamber string `json:"chamber" yaml:"chamber"`

	// Number is the bill number without the chamber prefix.
	Number string `json:"number" yaml:"number"`

	// Draft is the draft suffix (e.g. "HD2", "SD1_CD1"); empty for the introduced version.
	Draft string `json:"draft,omitempty" yaml:"draft,omitempty"`

	// Session is the legislative session year.
	Session int `json:"session,omitempty" yaml:"session,omitempty"`

	// SourceURL is the URL from which the bill HTML was downloaded.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// HTMLPath is the local filesystem path to the downloaded HTML.
	HTMLPath string `json:"html_path" yaml:"html_path"`

	// TextPath is the local path of the converted plain text, once converted.
	TextPath string `json:"text_path,omitempty" yaml:"text_path,omitempty"`

	// MeasureTitle is the "RELATING TO ..." title.
	MeasureTitle string `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`

	// ReportTitle and Description come from the bill's report section.
	ReportTitle string `json:"report_title,omitempty" yaml:"report_title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	AcquiredAt time.Time `json:"acquired_at" yaml:"acquired_at"`

	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`
}
