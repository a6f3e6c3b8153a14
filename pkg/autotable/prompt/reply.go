package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// IdentityKey is the reserved reply key naming the entity a scope was
// filled for.
const IdentityKey = "__identity__"

// ReplyKind tags the outcome of an oracle call.
type ReplyKind int

const (
	// ReplyMapping is a well-formed anchor to value mapping, possibly empty.
	ReplyMapping ReplyKind = iota

	// ReplyUnparseable means the oracle answered but no JSON object could
	// be recovered from its text.
	ReplyUnparseable

	// ReplyFailed means the oracle call itself failed.
	ReplyFailed
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyMapping:
		return "mapping"
	case ReplyUnparseable:
		return "unparseable"
	case ReplyFailed:
		return "failed"
	}
	return fmt.Sprintf("ReplyKind(%d)", int(k))
}

// Entry is one anchor id and its proposed value, in reply order.
type Entry struct {
	ID    string
	Value string
}

// Reply is the parsed oracle answer for one scope.
type Reply struct {
	Kind ReplyKind

	// Entries and Identity are set for ReplyMapping. The identity key is
	// never part of Entries.
	Entries  []Entry
	Identity string

	// Raw is the reply text for ReplyUnparseable.
	Raw string

	// Err is the transport error for ReplyFailed, or the parse error for
	// ReplyUnparseable.
	Err error
}

// Failed wraps a transport error.
func Failed(err error) Reply {
	return Reply{Kind: ReplyFailed, Err: err}
}

// Mapping reports whether the reply carries usable entries.
func (r Reply) Mapping() bool {
	return r.Kind == ReplyMapping
}

var errNoObject = errors.New("no JSON object found in reply")

// ParseReply decodes the oracle text. The whole text is tried first, then
// the span from the first '{' to the last '}', which recovers objects
// wrapped in prose or code fences. Key order is preserved.
func ParseReply(raw string) Reply {
	entries, identity, err := parseObject(raw)
	if err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return Reply{Kind: ReplyUnparseable, Raw: raw, Err: errNoObject}
		}
		entries, identity, err = parseObject(raw[start : end+1])
		if err != nil {
			return Reply{Kind: ReplyUnparseable, Raw: raw, Err: err}
		}
	}
	return Reply{Kind: ReplyMapping, Entries: entries, Identity: identity}
}

// parseObject decodes a single top-level JSON object with ordered keys.
func parseObject(s string) ([]Entry, string, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, "", err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, "", errNoObject
	}

	var (
		entries  []Entry
		identity string
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, "", err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, "", fmt.Errorf("unexpected key token %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, "", err
		}
		text, present, err := valueText(val)
		if err != nil {
			return nil, "", err
		}
		if !present {
			continue
		}
		if key == IdentityKey {
			identity = strings.TrimSpace(text)
			continue
		}
		entries = append(entries, Entry{ID: key, Value: text})
	}
	if _, err := dec.Token(); err != nil {
		return nil, "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, "", errors.New("trailing data after JSON object")
	}
	return entries, identity, nil
}

// valueText renders a reply value as fill text. null is reported as absent.
func valueText(raw json.RawMessage) (string, bool, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case json.Number:
		return t.String(), true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := scalarText(item)
			if !ok {
				return compact(raw), true, nil
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "；"), true, nil
	}
	return compact(raw), true, nil
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
