// Package docxtest builds small .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const ns = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// Package is a .docx under construction.
type Package struct {
	Body    string
	Headers []string
	Footers []string
}

// Bytes serializes the package.
func (p Package) Bytes(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("[Content_Types].xml", contentTypes)
	write("_rels/.rels", rels)
	write("word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<w:document `+ns+`><w:body>`+p.Body+`<w:sectPr/></w:body></w:document>`)
	for i, h := range p.Headers {
		write(fmt.Sprintf("word/header%d.xml", i+1), `<w:hdr `+ns+`>`+h+`</w:hdr>`)
	}
	for i, f := range p.Footers {
		write(fmt.Sprintf("word/footer%d.xml", i+1), `<w:ftr `+ns+`>`+f+`</w:ftr>`)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Open parses the package.
func (p Package) Open(t testing.TB) *docx.Document {
	t.Helper()
	doc, err := docx.OpenBytes(p.Bytes(t))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	return doc
}

// WriteFile saves the package under dir and returns its path.
func (p Package) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, p.Bytes(t), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Doc parses a document whose body is the concatenation of blocks.
func Doc(t testing.TB, blocks ...string) *docx.Document {
	t.Helper()
	return Package{Body: strings.Join(blocks, "")}.Open(t)
}

// P builds a paragraph from runs.
func P(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// PWithProps builds a paragraph with raw pPr content.
func PWithProps(pPr string, runs ...string) string {
	return "<w:p><w:pPr>" + pPr + "</w:pPr>" + strings.Join(runs, "") + "</w:p>"
}

// R builds a plain run.
func R(text string) string {
	return `<w:r><w:t xml:space="preserve">` + html.EscapeString(text) + `</w:t></w:r>`
}

// U builds a single-underlined run.
func U(text string) string {
	return RWithProps(`<w:u w:val="single"/>`, text)
}

// RWithProps builds a run with raw rPr content.
func RWithProps(rPr, text string) string {
	return `<w:r><w:rPr>` + rPr + `</w:rPr><w:t xml:space="preserve">` + html.EscapeString(text) + `</w:t></w:r>`
}

// Tbl builds a table from rows.
func Tbl(rows ...string) string {
	return "<w:tbl>" + strings.Join(rows, "") + "</w:tbl>"
}

// Tr builds a row from cells.
func Tr(cells ...string) string {
	return "<w:tr>" + strings.Join(cells, "") + "</w:tr>"
}

// Tc builds a cell holding one paragraph per text.
func Tc(texts ...string) string {
	return "<w:tc>" + paras(texts) + "</w:tc>"
}

// TcRaw builds a cell from raw content.
func TcRaw(content string) string {
	return "<w:tc>" + content + "</w:tc>"
}

// Span builds a cell covering n grid columns.
func Span(n int, texts ...string) string {
	return fmt.Sprintf(`<w:tc><w:tcPr><w:gridSpan w:val="%d"/></w:tcPr>`, n) + paras(texts) + "</w:tc>"
}

// VStart builds the first cell of a vertical merge.
func VStart(texts ...string) string {
	return `<w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr>` + paras(texts) + "</w:tc>"
}

// VCont builds a continuation cell of a vertical merge.
func VCont() string {
	return `<w:tc><w:tcPr><w:vMerge/></w:tcPr><w:p/></w:tc>`
}

func paras(texts []string) string {
	if len(texts) == 0 {
		return "<w:p/>"
	}
	var sb strings.Builder
	for _, t := range texts {
		if t == "" {
			sb.WriteString("<w:p/>")
			continue
		}
		sb.WriteString(P(R(t)))
	}
	return sb.String()
}
