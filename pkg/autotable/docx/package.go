// Package docx reads, edits and writes WordprocessingML (.docx) packages.
//
// Only the main document part is parsed into a DOM; every other part of the
// zip package is carried through byte-for-byte so that a saved document keeps
// its styles, numbering, media and relationships untouched.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Namespace of the WordprocessingML main schema.
const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const mainPart = "word/document.xml"

// ErrNotDocx indicates the input is not a genuine .docx package, most often a
// legacy .doc file renamed to .docx.
var ErrNotDocx = errors.New("not a genuine .docx file (re-save it as .docx from Word; renamed .doc files are not supported)")

// part is one zip entry kept verbatim.
type part struct {
	method   uint16
	modified time.Time
	data     []byte
}

// Open opens a .docx file.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// OpenBytes parses a .docx package held in memory.
func OpenBytes(data []byte) (*Document, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader parses a .docx package from r.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	doc := &Document{parts: make(map[string]*part, len(zr.File))}
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		doc.parts[f.Name] = &part{method: f.Method, modified: f.Modified, data: data}
		doc.order = append(doc.order, f.Name)
	}

	main, ok := doc.parts[mainPart]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, mainPart)
	}
	if err := doc.parseMain(main.data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}
	return doc, nil
}

// Save writes the document to path, creating parent directories as needed.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Write serializes the package to w. Parts keep their original order; only
// the main document part is re-encoded.
func (d *Document) Write(w io.Writer) error {
	mainXML, err := d.xml.WriteToBytes()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", mainPart, err)
	}

	zw := zip.NewWriter(w)
	for _, name := range d.order {
		p := d.parts[name]
		data := p.data
		if name == mainPart {
			data = mainXML
		}
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: p.modified}
		if p.method == zip.Store {
			hdr.Method = zip.Store
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// partNames returns the names of parts matching prefix and suffix, sorted.
func (d *Document) partNames(prefix, suffix string) []string {
	var names []string
	for _, name := range d.order {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// parsePart parses an auxiliary XML part into a fresh DOM.
func (d *Document) parsePart(name string) (*etree.Document, error) {
	p, ok := d.parts[name]
	if !ok {
		return nil, fmt.Errorf("part not found: %s", name)
	}
	x := etree.NewDocument()
	if err := x.ReadFromBytes(p.data); err != nil {
		return nil, err
	}
	return x, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
