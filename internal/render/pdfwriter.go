// Raw PDF 1.4 writer used by the built-in order renderer. Only what a
// one-column text report needs: Helvetica, uncompressed content streams,
// a classic xref table. Merging and validation of foreign PDFs live in
// internal/pdfmerge; this file never reads PDFs, it only writes them.
package render

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	pdfVersion = "1.4"

	// US Letter, in points (1 point = 1/72 inch).
	pageWidth  = 612.0
	pageHeight = 792.0

	fontSize   = 10.0
	titleSize  = 16.0
	leftMargin = 54.0
	topMargin  = 54.0
	leading    = 14.0
)

// Builder accumulates pages and serializes them into a single PDF.
//
// Object layout: 1 = catalog, 2 = page tree, 3 = font, then one content
// stream and one page object per page. Object numbers are assigned at
// build time so page objects can reference their streams correctly.
type Builder struct {
	pages []string // one content stream per page
}

// NewBuilder returns an empty document builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// PageCount reports how many pages have been added so far.
func (b *Builder) PageCount() int {
	return len(b.pages)
}

// AddTextPage lays out the given lines top-down on a new page. The first
// line is set in the title size, the rest in body size. Lines that would
// run off the bottom are dropped; the report renderer paginates before
// calling this.
func (b *Builder) AddTextPage(lines []string) {
	var content strings.Builder
	y := pageHeight - topMargin

	content.WriteString("BT\n")
	for i, line := range lines {
		size := fontSize
		if i == 0 {
			size = titleSize
		}
		if y < topMargin {
			break
		}
		content.WriteString(fmt.Sprintf("/F1 %.2f Tf\n", size))
		content.WriteString(fmt.Sprintf("1 0 0 1 %.2f %.2f Tm\n", leftMargin, y))
		content.WriteString(fmt.Sprintf("(%s) Tj\n", escapeText(line)))
		y -= leading
		if i == 0 {
			y -= leading / 2
		}
	}
	content.WriteString("ET\n")

	b.pages = append(b.pages, content.String())
}

// Bytes serializes the document. A builder with no pages still produces
// a structurally valid zero-page PDF; callers that care reject it.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%%PDF-%s\n", pdfVersion))
	buf.WriteString("%\xE2\xE3\xCF\xD3\n") // binary marker

	// Objects 1-3 are fixed; streams and pages follow in pairs.
	objects := make([]string, 0, 3+2*len(b.pages))

	streamNums := make([]int, len(b.pages))
	pageNums := make([]int, len(b.pages))
	for i := range b.pages {
		streamNums[i] = 4 + 2*i
		pageNums[i] = 5 + 2*i
	}

	var kids strings.Builder
	kids.WriteString("[")
	for i, n := range pageNums {
		if i > 0 {
			kids.WriteString(" ")
		}
		kids.WriteString(fmt.Sprintf("%d 0 R", n))
	}
	kids.WriteString("]")

	objects = append(objects, "<< /Type /Catalog\n/Pages 2 0 R\n>>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages\n/Kids %s\n/Count %d\n>>",
		kids.String(), len(b.pages)))
	objects = append(objects, "<< /Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>")

	for i, content := range b.pages {
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content)
		page := fmt.Sprintf("<< /Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %.2f %.2f]\n/Contents %d 0 R\n/Resources << /Font << /F1 3 0 R >> >>\n>>",
			pageWidth, pageHeight, streamNums[i])
		objects = append(objects, stream, page)
	}

	// Write objects tracking xref offsets. Object 0 is always free.
	xref := make([]int, len(objects)+1)
	for i, obj := range objects {
		xref[i+1] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	buf.WriteString(fmt.Sprintf("0 %d\n", len(objects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", xref[i]))
	}

	buf.WriteString("trailer\n")
	buf.WriteString(fmt.Sprintf("<< /Size %d\n/Root 1 0 R\n>>\n", len(objects)+1))
	buf.WriteString("startxref\n")
	buf.WriteString(fmt.Sprintf("%d\n", xrefPos))
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}

// escapeText escapes characters with meaning inside PDF literal strings.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
