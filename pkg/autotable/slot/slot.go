// Package slot decides which paragraphs and cells of a template are fillable.
//
// Classification looks at text alone (IsSlot) or at run formatting
// (HasVisualPlaceholder). Either one is enough to make a location a slot.
package slot

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
)

// OrdinalPromptMinLen is the rune length an ordinal-prefixed text must exceed
// to count as an instructional prompt rather than a short heading.
const OrdinalPromptMinLen = 5

// Blank characters of an underlined placeholder run.
const visualBlanks = " \t\u3000\u00a0"

// Characters a text may consist of and still be an empty blank, e.g. "（  ）".
const blankSet = " _()（）\u3000"

// ws matches whitespace including the full-width and no-break spaces common
// in CJK templates.
const ws = `[\s\x{3000}\x{00a0}]`

var (
	roleHeaderRe  = regexp.MustCompile(`^第` + ws + `*[（(]` + ws + `*[）)]` + ws + `*(?:完成人|作者|完成单位|单位|起草人)`)
	underscoresRe = regexp.MustCompile(`_{2,}`)
	parenHintRe   = regexp.MustCompile(`[(（](?:` + ws + `*|.*?(?:填写|输入|粘贴|限|字|内容).*?)[)）]`)
	dateBlankRe   = regexp.MustCompile(`_+|` + ws + `+`)
	colonEndRe    = regexp.MustCompile(`[:：]` + ws + `*$`)
	ordinalRe     = regexp.MustCompile(`^\d+(?:[.、]|` + ws + `)`)
)

// IsSlot reports whether text marks a fillable location. The rules are
// ordered and the first one that applies decides.
func IsSlot(text string) bool {
	t := Clean(text)
	switch {
	case t == "":
		return true
	case roleHeaderRe.MatchString(t):
		return false
	case onlyRunes(t, blankSet):
		return true
	case underscoresRe.MatchString(t):
		return true
	case parenHintRe.MatchString(t):
		return true
	case isDateBlank(t):
		return true
	case colonEndRe.MatchString(t):
		return true
	case ordinalRe.MatchString(t) && utf8.RuneCountInString(t) > OrdinalPromptMinLen:
		return true
	}
	return false
}

// isDateBlank matches "    年  月  日" style blanks.
func isDateBlank(t string) bool {
	if !strings.Contains(t, "年") || !strings.Contains(t, "月") {
		return false
	}
	first, _ := utf8.DecodeRuneInString(t)
	if unicode.IsDigit(first) {
		return false
	}
	return dateBlankRe.MatchString(t)
}

// HasVisualPlaceholder reports whether any run of the paragraphs is an
// underlined stretch of at least two blank characters.
func HasVisualPlaceholder(paras ...*docx.Paragraph) bool {
	for _, p := range paras {
		for _, r := range p.Runs() {
			if !r.Underlined() {
				continue
			}
			text := r.Text()
			if utf8.RuneCountInString(text) >= 2 && onlyRunes(text, visualBlanks) {
				return true
			}
		}
	}
	return false
}

// Clean drops invisible format characters such as zero-width spaces and BOMs,
// then trims surrounding whitespace.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimFunc(text, unicode.IsSpace)
}

func onlyRunes(s, set string) bool {
	for _, r := range s {
		if !strings.ContainsRune(set, r) {
			return false
		}
	}
	return true
}
