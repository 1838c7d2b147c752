// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tei converts a line-tagged Tengyur transcription into a TEI-XML
// document. Each source line carries a page/line locator such as [12b.4];
// the transducer turns page changes into <tei:p> boundaries and every line
// into a <tei:milestone unit="line"/> followed by its cleaned-up text.
//
// Output is streamed fragment by fragment to an io.Writer. No XML tree is
// ever built and no escaping is performed beyond the character removals done
// by Normalizer.
package tei

import "github.com/esukhia/derge-tei/pkg/types"

// titleLocator marks a title-bearing second line.
const titleLocator = "[1a.1]"

// First page paragraph opened by the header. Sequence numbers 1 and 2 are
// reserved for front matter.
const (
	firstPageSeq   = 3
	firstPageLabel = "1a"
)

// header is formatted with title (%[1]s), volume number (%[2]d), ignum (%[3]d)
// and the sequence number (%[4]d) and label (%[5]s) of the first page.
const header = `<?xml version="1.0" encoding="UTF-8"?>
<tei:TEI xmlns:tei="http://www.tei-c.org/ns/1.0">
  <tei:teiHeader>
    <tei:fileDesc>
      <tei:titleStmt>
        <tei:title>%[1]s [%[2]d]</tei:title>
      </tei:titleStmt>
      <tei:publicationStmt>
        <tei:distributor>Etext proofread by Esukhia, 2015-2018. This TEI files has been automatically generated by a script from text files available on https://github.com/Esukhia/derge-tengyur</tei:distributor>
        <tei:idno type="TBRC_TEXT_RID">` + types.TextRIDPrefix + `-1%[3]d-0000</tei:idno>
        <tei:idno type="page_equals_image">page_equals_image</tei:idno>
      </tei:publicationStmt>
      <tei:sourceDesc>
        <tei:bibl>
          <tei:idno type="TBRC_RID">` + types.WorkRID + `</tei:idno>
          <tei:idno type="SRC_PATH">eTengyur/` + types.WorkRID + `/sources/` + types.WorkRID + `-1%[3]d/` + types.WorkRID + `-1%[3]d-0000.txt</tei:idno>
        </tei:bibl>
      </tei:sourceDesc>
    </tei:fileDesc>
  </tei:teiHeader>
  <tei:text>
    <tei:body>
      <tei:div>
        <tei:p n="%[4]d" data-orig-n="%[5]s">%[1]s`

// pageBreak closes the current page paragraph and opens the next one with
// its sequence number (%[1]d) and raw page label (%[2]s).
const pageBreak = "</tei:p>\n        <tei:p n=\"%[1]d\" data-orig-n=\"%[2]s\">"

// lineMilestone marks a source line boundary (%[1]s) before its text (%[2]s).
const lineMilestone = `<tei:milestone unit="line" n="%[1]s"/>%[2]s`

const footer = `</tei:p>
      </tei:div>
    </tei:body>
  </tei:text>
</tei:TEI>
`
