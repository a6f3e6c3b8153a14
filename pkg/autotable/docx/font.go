package docx

import (
	"strconv"

	"github.com/beevik/etree"
)

// Font is the character formatting of a run. Zero values mean "not set" and
// are never written back.
type Font struct {
	// Name is the typeface. When written it is applied to the ascii, hAnsi
	// and eastAsia slots so CJK text renders in the same face.
	Name string `json:"name,omitempty"`

	// Size in half-points (w:sz).
	Size int `json:"size,omitempty"`

	Bold   *bool `json:"bold,omitempty"`
	Italic *bool `json:"italic,omitempty"`

	// Color is an RGB hex value such as "FF0000". "auto" is dropped on read.
	Color string `json:"color,omitempty"`

	// Underline is the w:u value, "" when absent.
	Underline string `json:"underline,omitempty"`
}

// IsZero reports whether no field is set.
func (f Font) IsZero() bool {
	return f.Name == "" && f.Size == 0 && f.Bold == nil && f.Italic == nil &&
		f.Color == "" && f.Underline == ""
}

// rPrOrder is the CT_RPr child sequence. Word rejects run properties whose
// children are out of order.
var rPrOrder = map[string]int{
	"rStyle": 0, "rFonts": 1, "b": 2, "bCs": 3, "i": 4, "iCs": 5,
	"caps": 6, "smallCaps": 7, "strike": 8, "dstrike": 9, "outline": 10,
	"shadow": 11, "emboss": 12, "imprint": 13, "noProof": 14, "snapToGrid": 15,
	"vanish": 16, "webHidden": 17, "color": 18, "spacing": 19, "w": 20,
	"kern": 21, "position": 22, "sz": 23, "szCs": 24, "highlight": 25,
	"u": 26, "effect": 27, "bdr": 28, "shd": 29, "fitText": 30,
	"vertAlign": 31, "rtl": 32, "cs": 33, "em": 34, "lang": 35,
	"eastAsianLayout": 36, "specVanish": 37, "oMath": 38,
}

// readFont decodes an rPr element. paraDefault selects the rules used for
// paragraph-level defaults: the eastAsia face wins over ascii, and oversized
// w:sz values are read as EMU.
func readFont(rPr *etree.Element, w string, paraDefault bool) Font {
	var f Font
	if fonts := rPr.SelectElement(qn(w, "rFonts")); fonts != nil {
		keys := []string{"ascii", "hAnsi", "eastAsia"}
		if paraDefault {
			keys = []string{"eastAsia", "ascii", "hAnsi"}
		}
		for _, k := range keys {
			if v := fonts.SelectAttrValue(qn(w, k), ""); v != "" {
				f.Name = v
				break
			}
		}
	}
	if sz := rPr.SelectElement(qn(w, "sz")); sz != nil {
		v := atoi(sz.SelectAttrValue(qn(w, "val"), ""))
		if paraDefault {
			v = normalizeSize(v)
		}
		f.Size = v
	}
	f.Bold = readToggle(rPr, w, "b")
	f.Italic = readToggle(rPr, w, "i")
	if c := rPr.SelectElement(qn(w, "color")); c != nil {
		if v := c.SelectAttrValue(qn(w, "val"), ""); v != "" && v != "auto" {
			f.Color = v
		}
	}
	if u := rPr.SelectElement(qn(w, "u")); u != nil {
		f.Underline = u.SelectAttrValue(qn(w, "val"), "single")
	}
	return f
}

func readToggle(rPr *etree.Element, w, local string) *bool {
	el := rPr.SelectElement(qn(w, local))
	if el == nil {
		return nil
	}
	var on bool
	switch el.SelectAttrValue(qn(w, "val"), "true") {
	case "0", "false", "off":
	default:
		on = true
	}
	return &on
}

func writeFont(rPr *etree.Element, w string, f Font) {
	if f.Name != "" {
		fonts := ensureProp(rPr, w, "rFonts")
		for _, k := range []string{"ascii", "hAnsi", "eastAsia"} {
			fonts.CreateAttr(qn(w, k), f.Name)
		}
	}
	if f.Bold != nil {
		writeToggle(rPr, w, "b", *f.Bold)
	}
	if f.Italic != nil {
		writeToggle(rPr, w, "i", *f.Italic)
	}
	if f.Color != "" {
		ensureProp(rPr, w, "color").CreateAttr(qn(w, "val"), f.Color)
	}
	if f.Size > 0 {
		v := strconv.Itoa(f.Size)
		ensureProp(rPr, w, "sz").CreateAttr(qn(w, "val"), v)
		ensureProp(rPr, w, "szCs").CreateAttr(qn(w, "val"), v)
	}
	if f.Underline != "" {
		ensureProp(rPr, w, "u").CreateAttr(qn(w, "val"), f.Underline)
	}
}

func writeToggle(rPr *etree.Element, w, local string, on bool) {
	el := ensureProp(rPr, w, local)
	if on {
		el.RemoveAttr(qn(w, "val"))
		return
	}
	el.CreateAttr(qn(w, "val"), "0")
}

// ensureProp returns the rPr child named local, inserting it at its schema
// position when missing.
func ensureProp(rPr *etree.Element, w, local string) *etree.Element {
	if el := rPr.SelectElement(qn(w, local)); el != nil {
		return el
	}
	el := etree.NewElement(qn(w, local))
	rank, known := rPrOrder[local]
	at := len(rPr.Child)
	if known {
		for i, tok := range rPr.Child {
			child, ok := tok.(*etree.Element)
			if !ok {
				continue
			}
			if r, ok := rPrOrder[child.Tag]; ok && r > rank {
				at = i
				break
			}
		}
	}
	rPr.InsertChildAt(at, el)
	return el
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
