package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Paragraph is a <w:p> element.
type Paragraph struct {
	el *etree.Element
	w  string
}

// Text returns the paragraph text, including text inside hyperlinks.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.el.ChildElements() {
		switch child.Tag {
		case "r":
			sb.WriteString(runText(child))
		case "hyperlink", "ins", "smartTag":
			for _, r := range child.SelectElements(qn(p.w, "r")) {
				sb.WriteString(runText(r))
			}
		}
	}
	return sb.String()
}

// Runs returns the runs that are direct children of the paragraph.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, el := range p.el.SelectElements(qn(p.w, "r")) {
		out = append(out, &Run{el: el, w: p.w})
	}
	return out
}

// StyleID returns the paragraph style reference, or "".
func (p *Paragraph) StyleID() string {
	pPr := p.el.SelectElement(qn(p.w, "pPr"))
	if pPr == nil {
		return ""
	}
	if s := pPr.SelectElement(qn(p.w, "pStyle")); s != nil {
		return s.SelectAttrValue(qn(p.w, "val"), "")
	}
	return ""
}

// DefaultFont returns the character formatting declared in the paragraph's
// own properties (pPr/rPr). Template authors leave this behind when they
// format an empty paragraph or cell.
func (p *Paragraph) DefaultFont() Font {
	pPr := p.el.SelectElement(qn(p.w, "pPr"))
	if pPr == nil {
		return Font{}
	}
	rPr := pPr.SelectElement(qn(p.w, "rPr"))
	if rPr == nil {
		return Font{}
	}
	return readFont(rPr, p.w, true)
}

// Clear removes all content but keeps the paragraph properties.
func (p *Paragraph) Clear() {
	for _, child := range p.el.ChildElements() {
		if child.Tag != "pPr" {
			p.el.RemoveChild(child)
		}
	}
}

// AddRun appends a run holding text and returns it.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{el: p.el.CreateElement(qn(p.w, "r")), w: p.w}
	if text != "" {
		r.SetText(text)
	}
	return r
}

// SetText replaces the paragraph content with a single run, keeping the
// paragraph style.
func (p *Paragraph) SetText(text string) *Run {
	p.Clear()
	return p.AddRun(text)
}

// Run is a <w:r> element.
type Run struct {
	el *etree.Element
	w  string
}

// Text returns the run text. Tabs and breaks are rendered as \t and \n.
func (r *Run) Text() string {
	return runText(r.el)
}

// SetText replaces the run content, keeping its formatting.
func (r *Run) SetText(text string) {
	for _, child := range r.el.ChildElements() {
		if child.Tag != "rPr" {
			r.el.RemoveChild(child)
		}
	}
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		t := r.el.CreateElement(qn(r.w, "t"))
		t.CreateAttr("xml:space", "preserve")
		t.SetText(buf.String())
		buf.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flush()
			r.el.CreateElement(qn(r.w, "tab"))
		case '\n':
			flush()
			r.el.CreateElement(qn(r.w, "br"))
		case '\r':
		default:
			buf.WriteRune(c)
		}
	}
	flush()
}

// Underlined reports whether the run carries an underline other than "none".
func (r *Run) Underlined() bool {
	rPr := r.el.SelectElement(qn(r.w, "rPr"))
	if rPr == nil {
		return false
	}
	u := rPr.SelectElement(qn(r.w, "u"))
	if u == nil {
		return false
	}
	switch u.SelectAttrValue(qn(r.w, "val"), "single") {
	case "none", "0", "false", "off":
		return false
	}
	return true
}

// SetUnderline forces a single underline on or removes it.
func (r *Run) SetUnderline(on bool) {
	val := "none"
	if on {
		val = "single"
	}
	u := ensureProp(r.rPr(), r.w, "u")
	u.CreateAttr(qn(r.w, "val"), val)
}

// Font returns the run-level formatting.
func (r *Run) Font() Font {
	rPr := r.el.SelectElement(qn(r.w, "rPr"))
	if rPr == nil {
		return Font{}
	}
	return readFont(rPr, r.w, false)
}

// ApplyFont writes every field set in f onto the run.
func (r *Run) ApplyFont(f Font) {
	if f.IsZero() {
		return
	}
	writeFont(r.rPr(), r.w, f)
}

// rPr returns the run properties, creating them as the first child.
func (r *Run) rPr() *etree.Element {
	if rPr := r.el.SelectElement(qn(r.w, "rPr")); rPr != nil {
		return rPr
	}
	rPr := etree.NewElement(qn(r.w, "rPr"))
	r.el.InsertChildAt(0, rPr)
	return rPr
}

func runText(r *etree.Element) string {
	var sb strings.Builder
	for _, child := range r.ChildElements() {
		switch child.Tag {
		case "t":
			sb.WriteString(child.Text())
		case "tab", "ptab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		case "noBreakHyphen":
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
