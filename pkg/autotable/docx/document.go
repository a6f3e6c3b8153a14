package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Document is an editable .docx package.
//
// Paragraphs and tables are addressed by their position among the body's
// direct children, so indexes stay valid while runs and cell content are
// edited in place.
type Document struct {
	parts map[string]*part
	order []string

	xml  *etree.Document
	body *etree.Element
	w    string // prefix bound to the WordprocessingML namespace
}

func (d *Document) parseMain(data []byte) error {
	x := etree.NewDocument()
	if err := x.ReadFromBytes(data); err != nil {
		return err
	}
	root := x.Root()
	if root == nil || root.Tag != "document" {
		return fmt.Errorf("%s has no document element", mainPart)
	}
	w := prefixFor(root, nsW)
	body := root.SelectElement(qn(w, "body"))
	if body == nil {
		return fmt.Errorf("%s has no body", mainPart)
	}
	d.xml, d.body, d.w = x, body, w
	return nil
}

// Paragraphs returns the top-level body paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range d.body.SelectElements(qn(d.w, "p")) {
		out = append(out, &Paragraph{el: el, w: d.w})
	}
	return out
}

// Tables returns the top-level body tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, el := range d.body.SelectElements(qn(d.w, "tbl")) {
		out = append(out, newTable(el, d.w))
	}
	return out
}

// HeaderFooterText is one non-empty paragraph of a header or footer part.
type HeaderFooterText struct {
	Footer bool
	Text   string
}

// HeaderFooterTexts returns the trimmed, non-empty paragraph texts of every
// header part followed by every footer part.
func (d *Document) HeaderFooterTexts() []HeaderFooterText {
	var out []HeaderFooterText
	collect := func(prefix string, footer bool) {
		for _, name := range d.partNames(prefix, ".xml") {
			x, err := d.parsePart(name)
			if err != nil || x.Root() == nil {
				continue
			}
			w := prefixFor(x.Root(), nsW)
			for _, el := range x.Root().SelectElements(qn(w, "p")) {
				text := strings.TrimSpace((&Paragraph{el: el, w: w}).Text())
				if text != "" {
					out = append(out, HeaderFooterText{Footer: footer, Text: text})
				}
			}
		}
	}
	collect("word/header", false)
	collect("word/footer", true)
	return out
}

// prefixFor returns the prefix the root element binds to ns, or "w".
func prefixFor(root *etree.Element, ns string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == ns {
			return a.Key
		}
	}
	return "w"
}

// qn builds a prefixed tag or attribute name.
func qn(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
