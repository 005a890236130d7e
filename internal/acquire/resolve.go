// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeBill
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeBill:
		return "bill"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// capitolBase is the root of the legislature's session archive. Declared
// as a var so tests can substitute an httptest server.
var capitolBase = "https://www.capitol.hawaii.gov/sessions/"

// billPattern matches bill identifiers with optional draft suffixes:
// "HB767", "hb 767", "SB2182_SD1", "HB767 HD2 SD2 CD1".
var billPattern = regexp.MustCompile(`(?i)^(HB|SB)\s*(\d{1,4})((?:[\s_-]*[HSC]D\d{1,2})*)$`)

var draftPattern = regexp.MustCompile(`(?i)[HSC]D\d{1,2}`)

// BillRef is a parsed bill identifier.
type BillRef struct {
	Chamber string // "HB" or "SB"
	Number  string
	Drafts  []string // e.g. ["HD2", "SD2"], empty for the introduced version
}

// Draft returns the draft suffixes joined with underscores.
func (b BillRef) Draft() string {
	return strings.Join(b.Drafts, "_")
}

// String returns the normalized identifier, e.g. "HB767_HD2_SD2".
func (b BillRef) String() string {
	if len(b.Drafts) == 0 {
		return b.Chamber + b.Number
	}
	return b.Chamber + b.Number + "_" + b.Draft()
}

// ParseBill parses a bill identifier. The second result is false when s is
// not a bill identifier.
func ParseBill(s string) (BillRef, bool) {
	m := billPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return BillRef{}, false
	}
	ref := BillRef{
		Chamber: strings.ToUpper(m[1]),
		Number:  strings.TrimLeft(m[2], "0"),
	}
	if ref.Number == "" {
		return BillRef{}, false
	}
	for _, d := range draftPattern.FindAllString(m[3], -1) {
		ref.Drafts = append(ref.Drafts, strings.ToUpper(d))
	}
	return ref, true
}

// Classify determines the identifier type and returns the normalized form.
// Bill identifiers are upper-cased with drafts joined by underscores.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if ref, ok := ParseBill(identifier); ok {
		return TypeBill, ref.String()
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// Slug returns a filesystem-safe filename stem for the identifier. Bill
// slugs keep the normalized identifier so extraction documents are named
// after the bill.
func Slug(idType IdentifierType, normalized string) string {
	switch idType {
	case TypeBill:
		return normalized
	case TypeURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return urlHashSlug(normalized)
		}
		base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if ref, ok := ParseBill(strings.TrimRight(base, "_")); ok {
			return ref.String()
		}
		if base == "" || base == "." || base == "/" {
			return urlHashSlug(normalized)
		}
		return base
	default:
		return "unknown"
	}
}

// BillURL returns the session archive URL of a bill's HTML text, e.g.
// ".../session2021/bills/HB767_HD2_.htm".
func BillURL(session int, ref BillRef) string {
	return fmt.Sprintf("%ssession%d/bills/%s_.htm", capitolBase, session, ref.String())
}

// SourceURL returns the download URL for the identifier.
func SourceURL(idType IdentifierType, normalized string, session int) string {
	switch idType {
	case TypeBill:
		ref, _ := ParseBill(normalized)
		return BillURL(session, ref)
	case TypeURL:
		return normalized
	default:
		return ""
	}
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}
