// Package anchor assigns per-scope identifiers to the fillable locations of a
// document and renders each scope as text for the oracle.
//
// A scope is either the whole run of top-level paragraphs or one table. Ids
// restart at 1 in every scope, so an id is only meaningful together with the
// scope that issued it.
package anchor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/slot"
)

// HintMaxLen is the exclusive rune limit for a neighbouring cell's text to be
// used as a label hint.
const HintMaxLen = 20

// EmptyMarker stands in for the text of a slot that has no visible text.
const EmptyMarker = "[下划线填空区]"

// Kind is the type of scope.
type Kind int

const (
	KindParagraphs Kind = iota
	KindTable
)

func (k Kind) String() string {
	if k == KindTable {
		return "table"
	}
	return "paragraphs"
}

// Locator addresses an anchor's target. Paragraph is used by paragraph
// scopes, Row and Col by table scopes.
type Locator struct {
	Paragraph int `json:"paragraph,omitempty"`
	Row       int `json:"row,omitempty"`
	Col       int `json:"col,omitempty"`
}

// Anchor is one fillable location.
type Anchor struct {
	// ID is the token shown to the oracle, e.g. "{{ID_001}}".
	ID string `json:"id"`

	Locator Locator `json:"locator"`

	// Original is the trimmed text of the location when it was mapped.
	Original string `json:"original"`

	// Hint is a nearby label such as " | 左侧Label: 姓名", or "".
	Hint string `json:"hint,omitempty"`
}

// Context returns the description sent to the oracle for this anchor.
func (a *Anchor) Context() string {
	text := a.Original
	if text == "" {
		text = EmptyMarker
	}
	return fmt.Sprintf("原内容: '%s'%s", text, a.Hint)
}

// Context is an anchor id paired with its description.
type Context struct {
	ID   string
	Text string
}

// Scope is the result of mapping one unit of work.
type Scope struct {
	Kind Kind

	// Table is the table index for table scopes.
	Table int

	// Rendered is the scope as text: a bullet list for paragraphs, a
	// pipe-delimited grid for tables.
	Rendered string

	anchors []*Anchor
	byID    map[string]*Anchor
}

func newScope(kind Kind, table int) *Scope {
	return &Scope{Kind: kind, Table: table, byID: make(map[string]*Anchor)}
}

// Name identifies the scope in logs.
func (s *Scope) Name() string {
	if s.Kind == KindTable {
		return fmt.Sprintf("table %d", s.Table+1)
	}
	return "paragraphs"
}

// Len returns the number of anchors.
func (s *Scope) Len() int {
	return len(s.anchors)
}

// Anchors returns the anchors in id order.
func (s *Scope) Anchors() []*Anchor {
	return s.anchors
}

// Lookup finds an anchor by id. The braces of the token are optional, so
// "ID_001" and "{{ID_001}}" resolve to the same anchor.
func (s *Scope) Lookup(id string) (*Anchor, bool) {
	a, ok := s.byID[Token(id)]
	return a, ok
}

// Contexts returns the per-anchor descriptions in id order.
func (s *Scope) Contexts() []Context {
	out := make([]Context, len(s.anchors))
	for i, a := range s.anchors {
		out[i] = Context{ID: a.ID, Text: a.Context()}
	}
	return out
}

func (s *Scope) add(loc Locator, original, hint string) *Anchor {
	a := &Anchor{
		ID:       FormatID(len(s.anchors) + 1),
		Locator:  loc,
		Original: original,
		Hint:     hint,
	}
	s.anchors = append(s.anchors, a)
	s.byID[a.ID] = a
	return a
}

// FormatID returns the token for the n-th anchor of a scope.
func FormatID(n int) string {
	return fmt.Sprintf("{{ID_%03d}}", n)
}

// Token normalizes an id returned by the oracle to the "{{ID_001}}" form.
func Token(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "{{") && strings.HasSuffix(id, "}}") {
		return id
	}
	return "{{" + strings.Trim(id, "{}") + "}}"
}

// MapParagraphs maps the top-level paragraphs. Empty paragraphs without an
// underlined placeholder are left out entirely; other non-slot paragraphs
// are rendered for context but get no anchor.
func MapParagraphs(paras []*docx.Paragraph) *Scope {
	s := newScope(KindParagraphs, 0)
	var lines []string
	for i, p := range paras {
		text := strings.TrimSpace(p.Text())
		visual := slot.HasVisualPlaceholder(p)
		if text == "" && !visual {
			continue
		}
		if !visual && !slot.IsSlot(text) {
			lines = append(lines, "- "+text)
			continue
		}
		a := s.add(Locator{Paragraph: i}, text, "")
		display := text
		if display == "" {
			display = EmptyMarker
		}
		lines = append(lines, fmt.Sprintf("- %s (原: %s)", a.ID, display))
	}
	s.Rendered = strings.Join(lines, "\n")
	return s
}

// MapTable maps one table. Grid positions covered by a merged cell share the
// anchor issued at the first position visited.
func MapTable(t *docx.Table, index int) *Scope {
	s := newScope(KindTable, index)
	seen := make(map[int]*Anchor)
	lines := make([]string, 0, t.Rows())
	for r := 0; r < t.Rows(); r++ {
		cols := make([]string, 0, t.Cols(r))
		for c := 0; c < t.Cols(r); c++ {
			id, err := t.CellID(r, c)
			if err != nil {
				continue
			}
			if a, ok := seen[id]; ok {
				cols = append(cols, a.ID)
				continue
			}
			cell, _ := t.Cell(r, c)
			text := strings.TrimSpace(cell.Text())
			if !slot.IsSlot(text) && !slot.HasVisualPlaceholder(cell.Paragraphs()...) {
				cols = append(cols, strings.ReplaceAll(text, "\n", "<br>"))
				continue
			}
			a := s.add(Locator{Row: r, Col: c}, text, tableHint(t, r, c, id))
			seen[id] = a
			cols = append(cols, a.ID)
		}
		lines = append(lines, "| "+strings.Join(cols, " | ")+" |")
	}
	s.Rendered = strings.Join(lines, "\n")
	return s
}

// tableHint looks for a short label in the cell to the left, then in the
// cell above. Neighbours that are part of the same merged cell are ignored.
func tableHint(t *docx.Table, r, c, self int) string {
	if text := neighbourText(t, r, c-1, self); text != "" {
		return " | 左侧Label: " + text
	}
	if text := neighbourText(t, r-1, c, self); text != "" {
		return " | 上方Label: " + text
	}
	return ""
}

func neighbourText(t *docx.Table, r, c, self int) string {
	id, err := t.CellID(r, c)
	if err != nil || id == self {
		return ""
	}
	cell, _ := t.Cell(r, c)
	text := strings.TrimSpace(cell.Text())
	if utf8.RuneCountInString(text) >= HintMaxLen {
		return ""
	}
	return text
}
