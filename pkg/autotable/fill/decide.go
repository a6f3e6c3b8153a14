// Package fill writes oracle values into the document locations named by
// anchors while keeping the template's formatting.
package fill

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
)

// Strategy tags how a value is written.
type Strategy int

const (
	// Skip leaves the target untouched.
	Skip Strategy = iota

	// Smart replaces an underlined blank placeholder run and keeps the
	// label before it.
	Smart

	// AppendParagraph adds the value as a new paragraph below an
	// instructional table header.
	AppendParagraph

	// AppendRun adds the value after a label-only body paragraph.
	AppendRun

	// Overwrite replaces a paragraph's runs with one run carrying the
	// previous character formatting.
	Overwrite

	// Replace swaps all paragraph text and keeps only the paragraph style.
	Replace

	// Raw sets the text of a cell that has no paragraphs.
	Raw
)

var strategyNames = [...]string{"skip", "smart", "append-paragraph", "append-run", "overwrite", "replace", "raw"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

// placeholderChars are the characters an underlined placeholder run may
// consist of.
const placeholderChars = " _\t\u3000\u00a0"

const (
	headerPrefixLen = 10
	labelPrefixLen  = 5
)

var (
	dottedOrdinalRe = regexp.MustCompile(`^\d+(\.\d+)*[、. ]`)
	wordLimitRe     = regexp.MustCompile(`[（(].*?不超过.*?字.*?[)）]`)
	looseOrdinalRe  = regexp.MustCompile(`^\d+[.、\s]`)
)

// Target is the location an anchor points at. Exactly one field is set.
type Target struct {
	Paragraph *docx.Paragraph
	Cell      *docx.Cell
}

// Decision is a chosen strategy and the data it needs.
type Decision struct {
	Strategy Strategy

	// Paragraph is the paragraph written by Smart, AppendRun, Overwrite and
	// Replace.
	Paragraph *docx.Paragraph

	// Cell is the cell written by AppendParagraph and Raw.
	Cell *docx.Cell

	// Placeholder is the index of the placeholder run for Smart.
	Placeholder int

	// Text is what gets written.
	Text string

	// Font is reapplied to new content by AppendParagraph and Overwrite.
	Font docx.Font
}

// Decide picks the strategy for writing value into target. It does not
// modify the document.
func Decide(target Target, value string) Decision {
	if strings.TrimSpace(value) == "" {
		return Decision{Strategy: Skip}
	}
	switch {
	case target.Cell != nil:
		return decideCell(target.Cell, value)
	case target.Paragraph != nil:
		return decideParagraph(target.Paragraph, strings.TrimSpace(value))
	}
	return Decision{Strategy: Skip}
}

func decideCell(c *docx.Cell, value string) Decision {
	paras := c.Paragraphs()
	if len(paras) == 0 {
		return Decision{Strategy: Raw, Cell: c, Text: value}
	}
	first := paras[0]

	if idx, fill, ok := planSmart(first, value); ok {
		return Decision{Strategy: Smart, Paragraph: first, Placeholder: idx, Text: fill}
	}

	original := strings.TrimSpace(c.Text())
	if isInstructionalHeader(original) && !strings.HasPrefix(strings.TrimSpace(value), runePrefix(original, headerPrefixLen)) {
		var font docx.Font
		if runs := first.Runs(); len(runs) > 0 {
			font = runs[0].Font()
		}
		return Decision{Strategy: AppendParagraph, Cell: c, Text: value, Font: font}
	}

	return Decision{Strategy: Overwrite, Paragraph: first, Text: value, Font: sourceFont(first)}
}

func decideParagraph(p *docx.Paragraph, value string) Decision {
	if idx, fill, ok := planSmart(p, value); ok {
		return Decision{Strategy: Smart, Paragraph: p, Placeholder: idx, Text: fill}
	}
	original := strings.TrimSpace(p.Text())
	if isLabelOnly(original) && !strings.HasPrefix(value, runePrefix(original, labelPrefixLen)) {
		return Decision{Strategy: AppendRun, Paragraph: p, Text: " " + value}
	}
	return Decision{Strategy: Replace, Paragraph: p, Text: value}
}

// sourceFont is the formatting of the first run, or the paragraph's own
// character defaults when it has no runs.
func sourceFont(p *docx.Paragraph) docx.Font {
	if runs := p.Runs(); len(runs) > 0 {
		return runs[0].Font()
	}
	return p.DefaultFont()
}

// planSmart finds the first underlined blank run and works out what goes in
// it. ok is false when there is no placeholder or when the value carries a
// different version of the label.
func planSmart(p *docx.Paragraph, value string) (idx int, fill string, ok bool) {
	runs := p.Runs()
	idx = -1
	for i, r := range runs {
		if isPlaceholderRun(r) && r.Text() != "" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, "", false
	}

	var label strings.Builder
	for _, r := range runs[:idx] {
		label.WriteString(r.Text())
	}
	labelClean := norm.NFC.String(stripSpace(label.String()))
	value = norm.NFC.String(value)
	// A value that never mentions the label fills the blank and the label runs stay.
	if labelClean == "" || !strings.Contains(stripSpace(value), labelClean) {
		return idx, strings.TrimSpace(value), true
	}
	end, matched := matchLabel(value, labelClean)
	if !matched {
		return -1, "", false
	}
	return idx, strings.TrimSpace(value[end:]), true
}

// matchLabel matches label against the start of value, ignoring whitespace
// in value. It returns the byte offset just past the matched label.
func matchLabel(value, label string) (int, bool) {
	want := []rune(label)
	i, end := 0, 0
	for pos, r := range value {
		if i == len(want) {
			break
		}
		if unicode.IsSpace(r) {
			continue
		}
		if r != want[i] {
			break
		}
		i++
		end = pos + utf8.RuneLen(r)
	}
	return end, i == len(want)
}

func isPlaceholderRun(r *docx.Run) bool {
	if !r.Underlined() {
		return false
	}
	return strings.Trim(r.Text(), placeholderChars) == ""
}

func isInstructionalHeader(text string) bool {
	if text == "" {
		return false
	}
	return dottedOrdinalRe.MatchString(text) ||
		wordLimitRe.MatchString(text) ||
		(looseOrdinalRe.MatchString(text) && utf8.RuneCountInString(text) > 5)
}

func isLabelOnly(text string) bool {
	return strings.HasSuffix(text, ":") || strings.HasSuffix(text, "：")
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
