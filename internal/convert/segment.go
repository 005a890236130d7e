// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	measureTitlePattern = regexp.MustCompile(`(?i)RELATING TO (.+?)\.`)
	reportTitlePattern  = regexp.MustCompile(`Report Title:\s*(.+)`)
	descriptionPattern  = regexp.MustCompile(`Description:\s*(.+)`)
	sectionPattern      = regexp.MustCompile(`SECTION\s+(\d+)\.`)
	newlineRun          = regexp.MustCompile(`\n+`)
)

// Section is one numbered section of a bill.
type Section struct {
	Number  int    `json:"number" yaml:"number"`
	Content string `json:"content" yaml:"content"`
}

// Segments holds the labelled parts of a bill's plain text.
type Segments struct {
	MeasureTitle string    `json:"measure_title,omitempty" yaml:"measure_title,omitempty"`
	ReportTitle  string    `json:"report_title,omitempty" yaml:"report_title,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Sections     []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Segment splits bill text into its measure title ("RELATING TO ..."),
// report title, description, and numbered sections. Parts that are not
// found are left empty.
func Segment(text string) Segments {
	text = strings.TrimSpace(newlineRun.ReplaceAllString(text, "\n"))

	var s Segments
	if m := measureTitlePattern.FindStringSubmatch(text); m != nil {
		s.MeasureTitle = "RELATING TO " + strings.TrimSpace(m[1])
	}
	if m := reportTitlePattern.FindStringSubmatch(text); m != nil {
		s.ReportTitle = strings.TrimSpace(m[1])
	}
	if m := descriptionPattern.FindStringSubmatch(text); m != nil {
		s.Description = strings.TrimSpace(m[1])
	}

	locs := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			n = i + 1
		}
		s.Sections = append(s.Sections, Section{
			Number:  n,
			Content: strings.TrimSpace(text[loc[0]:end]),
		})
	}
	return s
}
