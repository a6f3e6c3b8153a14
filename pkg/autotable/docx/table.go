package docx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrOutOfRange is returned when a grid coordinate lies outside a table.
var ErrOutOfRange = errors.New("cell coordinate out of range")

// Table is a <w:tbl> element viewed as a rectangular-ish grid.
//
// Each physical <w:tc> is stored once in an arena. The grid holds arena
// indexes, so a cell spanning several columns (gridSpan) or rows (vMerge)
// occupies several grid positions with the same index.
type Table struct {
	el    *etree.Element
	w     string
	cells []*Cell
	grid  [][]int
}

func newTable(el *etree.Element, w string) *Table {
	t := &Table{el: el, w: w}
	for r, tr := range el.SelectElements(qn(w, "tr")) {
		var row []int
		for _, tc := range tr.SelectElements(qn(w, "tc")) {
			span, merge := cellMerge(tc, w)
			id := -1
			if merge == "continue" && r > 0 && len(row) < len(t.grid[r-1]) {
				id = t.grid[r-1][len(row)]
			}
			if id < 0 {
				id = len(t.cells)
				t.cells = append(t.cells, &Cell{el: tc, w: w})
			}
			for i := 0; i < span; i++ {
				row = append(row, id)
			}
		}
		t.grid = append(t.grid, row)
	}
	return t
}

// cellMerge reads gridSpan and vMerge from a cell's properties. merge is
// "restart", "continue" or "".
func cellMerge(tc *etree.Element, w string) (span int, merge string) {
	span = 1
	tcPr := tc.SelectElement(qn(w, "tcPr"))
	if tcPr == nil {
		return span, ""
	}
	if gs := tcPr.SelectElement(qn(w, "gridSpan")); gs != nil {
		if n, err := strconv.Atoi(gs.SelectAttrValue(qn(w, "val"), "1")); err == nil && n > 1 {
			span = n
		}
	}
	if vm := tcPr.SelectElement(qn(w, "vMerge")); vm != nil {
		merge = vm.SelectAttrValue(qn(w, "val"), "continue")
	}
	return span, merge
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	return len(t.grid)
}

// Cols returns the number of grid columns in row.
func (t *Table) Cols(row int) int {
	if row < 0 || row >= len(t.grid) {
		return 0
	}
	return len(t.grid[row])
}

// CellID returns the arena index of the cell at (row, col). Positions covered
// by the same merged cell share an id.
func (t *Table) CellID(row, col int) (int, error) {
	if row < 0 || row >= len(t.grid) || col < 0 || col >= len(t.grid[row]) {
		return -1, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	return t.grid[row][col], nil
}

// Cell returns the cell at (row, col).
func (t *Table) Cell(row, col int) (*Cell, error) {
	id, err := t.CellID(row, col)
	if err != nil {
		return nil, err
	}
	return t.cells[id], nil
}

// Cell is a <w:tc> element.
type Cell struct {
	el *etree.Element
	w  string
}

// Paragraphs returns the paragraphs directly inside the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range c.el.SelectElements(qn(c.w, "p")) {
		out = append(out, &Paragraph{el: el, w: c.w})
	}
	return out
}

// Text returns the paragraph texts joined by newlines.
func (c *Cell) Text() string {
	paras := c.Paragraphs()
	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = p.Text()
	}
	return strings.Join(texts, "\n")
}

// AddParagraph appends a paragraph holding text.
func (c *Cell) AddParagraph(text string) *Paragraph {
	p := &Paragraph{el: c.el.CreateElement(qn(c.w, "p")), w: c.w}
	if text != "" {
		p.AddRun(text)
	}
	return p
}

// SetText replaces the whole cell content with a single paragraph.
func (c *Cell) SetText(text string) {
	for _, child := range c.el.ChildElements() {
		if child.Tag != "tcPr" {
			c.el.RemoveChild(child)
		}
	}
	c.AddParagraph(text)
}
