// Package frontmatter separates YAML frontmatter from Markdown documents and exposes the
// few fields the indexer consumes.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is the full input.
// CRLF documents are handled.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---")
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	rest := content[start+idx+len(closeSeq):]
	switch {
	case len(rest) == 0:
	case bytes.HasPrefix(rest, []byte(nl)):
		rest = rest[len(nl):]
	default:
		// "---" followed by more text is not a closing delimiter.
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start:end], rest, true, nil
}

// Fields is parsed frontmatter.
type Fields map[string]any

// Parse parses raw YAML frontmatter (without --- delimiters).
func Parse(fm []byte) (Fields, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return Fields{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return Fields(fields), nil
}

// Read splits content and parses its frontmatter in one step. Documents without
// frontmatter yield empty Fields and the full content as body.
func Read(content []byte) (Fields, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Fields{}, content, err
	}
	if !had {
		return Fields{}, body, nil
	}
	fields, err := Parse(fm)
	if err != nil {
		return Fields{}, body, err
	}
	return fields, body, nil
}

// String returns a scalar field rendered as a trimmed string.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []any, map[string]any:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

// Title returns the "title" field.
func (f Fields) Title() (string, bool) { return f.String("title") }

// Tags returns the "tags" field, accepting either a YAML list or a comma-separated string.
func (f Fields) Tags() []string {
	var raw []string
	switch t := f["tags"].(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, v := range t {
			raw = append(raw, fmt.Sprint(v))
		}
	}
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Flatten renders every scalar field as a string, skipping nested structures.
func (f Fields) Flatten() map[string]string {
	out := make(map[string]string, len(f))
	for _, k := range f.Keys() {
		if s, ok := f.String(k); ok {
			out[k] = s
		}
	}
	return out
}

// Keys returns the field names, sorted.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
