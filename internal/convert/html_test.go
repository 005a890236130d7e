// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBillHTML = `<html>
<head><style>p { color: red; }</style><script>var x = 1;</script></head>
<body>
<table>
<tr><td class="ChamberHeading">HOUSE OF REPRESENTATIVES</td><td class="MeasureNumberHeading">H.B. NO.</td><td class="MeasureNumberHeading">767</td></tr>
<tr><td class="ChamberHeading">THIRTY-FIRST LEGISLATURE, 2021</td><td class="MeasureNumberHeading">H.D. 2</td></tr>
<tr><td class="ChamberHeading">STATE OF HAWAII</td><td class="MeasureNumberHeading">S.D. 2</td></tr>
</table>
<p class="ABILLFORANACT">A BILL FOR AN ACT</p>
<p class="MeasureTitle">RELATING TO&nbsp;FARM TO SCHOOL.</p>
<p class="BEITENACTED">BE IT ENACTED BY THE LEGISLATURE OF THE STATE OF HAWAII:</p>
<p class="1Paragraph">SECTION 1.&nbsp; The legislature finds that the
   farm to school program supports <b>local</b> farmers.</p>
<p class="RegularParagraphs">The purpose of this Act is to move the farm to school program.</p>
<p class="RegularParagraphs"><o:p>&nbsp;</o:p></p>
<p class="1Paragraph">SECTION 2.&nbsp; This Act shall take effect upon approval.</p>
<p class="ReportTitle">Farm to School Program</p>
<p class="Description">Moves the farm to school program to the department of education.</p>
<p class="Unrelated">Ignored paragraph.</p>
</body></html>`

func TestHTMLToText(t *testing.T) {
	text, err := HTMLToText(strings.NewReader(sampleBillHTML))
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{
		"HOUSE OF REPRESENTATIVES",
		"H.B. NO. 767",
		"THIRTY-FIRST LEGISLATURE, 2021",
		"H.D. 2",
		"STATE OF HAWAII",
		"S.D. 2",
		"A BILL FOR AN ACT",
		"RELATING TO FARM TO SCHOOL.",
		"BE IT ENACTED BY THE LEGISLATURE OF THE STATE OF HAWAII:",
		"SECTION 1. The legislature finds that the farm to school program supports local farmers.",
		"The purpose of this Act is to move the farm to school program.",
		"SECTION 2. This Act shall take effect upon approval.",
		"Report Title:",
		"Farm to School Program",
		"Description:",
		"Moves the farm to school program to the department of education.",
	}, lines)

	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "Ignored paragraph")
	assert.NotContains(t, text, "\u00a0")
}

func TestHTMLToTextFallsBackToBody(t *testing.T) {
	html := `<html><body><h1>Testimony</h1><div><p>The farm bureau supports HB767.</p><p>  Aloha.  </p></div></body></html>`
	text, err := HTMLToText(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "Testimony\nThe farm bureau supports HB767.\nAloha.", text)
}

func TestHTMLToTextEmpty(t *testing.T) {
	text, err := HTMLToText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTidyJoinsShortContinuation(t *testing.T) {
	got := tidy("The department shall\nsubmit a report\nSECTION 2. Next.\n\n\n\n(a) item", nil)
	assert.Equal(t, "The department shall submit a report\nSECTION 2. Next.\n(a) item", got)
}

func TestHeaderLines(t *testing.T) {
	assert.Equal(t,
		[]string{"THE SENATE", "S.B. NO. 2182", "S.D. 1"},
		headerLines([]string{"THE SENATE", "S.B. NO.", "2182", "S.D. 1"}))
	assert.Equal(t, []string{"H.B. NO."}, headerLines([]string{"H.B. NO."}))
}
