// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Paragraph classes used by the legislature's bill HTML.
var (
	headerSelector  = "p.ChamberHeading, td.ChamberHeading, p.MeasureNumberHeading, td.MeasureNumberHeading"
	contentSelector = "p.ABILLFORANACT, p.MeasureTitle, p.BEITENACTED, p.RegularParagraphs, " +
		`p[class~="1Paragraph"], p.Effective, p.ReportTitle, p.Description`
)

const actHeading = "A BILL FOR AN ACT"

var (
	officeMarkup = regexp.MustCompile(`<o:p>.*?</o:p>`)
	spaceRun     = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankRun     = regexp.MustCompile(`\n{3,}`)
	wordEnd      = regexp.MustCompile(`\w$`)
	wordStart    = regexp.MustCompile(`^\w`)
)

// Lines that begin a new logical unit and are never joined onto the
// previous line.
var unitPrefixes = []string{"SECTION", "(", `"`, "§", "Report Title:", "Description:"}

// HTMLConverter turns a bill's HTML into plain text.
type HTMLConverter struct{}

// Convert reads the HTML file at path and returns its plain text.
func (HTMLConverter) Convert(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening HTML %s: %w", path, err)
	}
	defer f.Close()
	return HTMLToText(f)
}

// HTMLToText extracts the bill text from r. The chamber and measure
// headings come first, followed by the content paragraphs in document
// order, with the report title and description labelled. When the
// document has none of the known paragraph classes the visible body text
// is returned instead.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	var lines []string

	var header []string
	doc.Find(headerSelector).Each(func(_ int, s *goquery.Selection) {
		if t := clean(s.Text()); t != "" {
			header = append(header, t)
		}
	})
	if len(header) > 0 {
		lines = append(lines, headerLines(header)...)
		lines = append(lines, "", actHeading)
	}

	content := doc.Find(contentSelector)
	content.Each(func(_ int, s *goquery.Selection) {
		t := clean(s.Text())
		if t == "" {
			return
		}
		switch {
		case s.HasClass("ReportTitle"):
			lines = append(lines, "Report Title:", t)
		case s.HasClass("Description"):
			lines = append(lines, "Description:", t)
		case s.HasClass("ABILLFORANACT"):
			if len(header) == 0 {
				lines = append(lines, t)
			}
		default:
			lines = append(lines, t)
		}
	})

	if content.Length() == 0 && len(header) == 0 {
		return bodyText(doc), nil
	}
	return tidy(strings.Join(lines, "\n"), header), nil
}

// headerLines pairs a "H.B. NO." style label with the number that follows it.
func headerLines(header []string) []string {
	var out []string
	for i := 0; i < len(header); i++ {
		h := header[i]
		if strings.HasSuffix(strings.ToUpper(h), "NO.") && i+1 < len(header) {
			h += " " + header[i+1]
			i++
		}
		out = append(out, h)
	}
	return out
}

func clean(s string) string {
	s = officeMarkup.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// bodyText returns the text of each block element of the body on its own line.
func bodyText(doc *goquery.Document) string {
	var lines []string
	doc.Find("body p, body h1, body h2, body h3, body h4, body li, body td").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li, td").Length() > 0 {
			return
		}
		if t := clean(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return clean(doc.Find("body").Text())
	}
	return strings.Join(lines, "\n")
}

// tidy collapses spacing, drops blank lines, and rejoins short lines that
// an HTML line break split mid-sentence.
func tidy(text string, header []string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = blankRun.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if i+1 < len(lines) && joinable(line, strings.TrimSpace(lines[i+1]), header) {
			line += " " + strings.TrimSpace(lines[i+1])
			i++
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func joinable(line, next string, header []string) bool {
	if next == "" || len(next) >= 50 || line == actHeading {
		return false
	}
	for _, p := range unitPrefixes {
		if strings.HasPrefix(next, p) {
			return false
		}
	}
	for _, h := range header {
		if strings.Contains(line, h) {
			return false
		}
	}
	return wordEnd.MatchString(line) && wordStart.MatchString(next)
}
