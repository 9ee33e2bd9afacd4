// Package frontmatter reads and writes the metadata block at the head of a
// content file.
//
// A document looks like:
//
//	---
//	title: Hello World
//	published: true
//	tags: [go, web]
//	---
//	Body text in Markdown.
//
// The block between the fences is a YAML mapping of scalars, flat lists of
// scalars, and nested mappings of the same. Parsing accepts anything
// yaml.v3 can decode into a string-keyed map; serialization is
// deterministic (fixed priority keys first, remaining keys sorted) so that
// an unmodified document round-trips to byte-identical metadata. Parse and
// Marshal accept the same value domain: whatever one produces, the other
// takes back.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter is the fence line that opens and closes a metadata block.
const Delimiter = "---"

// ErrNoBlock indicates the document does not start with a metadata block.
var ErrNoBlock = errors.New("no front-matter block")

// ErrMalformed indicates the metadata block is present but not a valid
// string-keyed mapping.
var ErrMalformed = errors.New("malformed front-matter")

// Split separates a document into its metadata block (fence lines
// excluded) and body. The body has the single blank line that
// conventionally follows the closing fence trimmed.
//
// Returns [ErrNoBlock] if data does not start with a fence, and
// [ErrMalformed] if the opening fence is never closed.
func Split(data []byte) (block []byte, body string, err error) {
	content := string(data)

	if !strings.HasPrefix(content, Delimiter+"\n") && content != Delimiter {
		return nil, "", ErrNoBlock
	}

	rest := strings.TrimPrefix(content, Delimiter+"\n")

	// The closing fence must be a full "---" line, not merely a line that
	// starts with three dashes. A fence at offset zero closes an empty
	// block, which is what marshalling an empty map produces.
	end := strings.Index(rest, "\n"+Delimiter+"\n")

	switch {
	case rest == Delimiter:
		// Empty block, no body.
	case strings.HasPrefix(rest, Delimiter+"\n"):
		body = rest[len(Delimiter)+1:]
	case end >= 0:
		block = []byte(rest[:end])
		body = rest[end+len("\n"+Delimiter+"\n"):]
	case strings.HasSuffix(rest, "\n"+Delimiter):
		block = []byte(rest[:len(rest)-len("\n"+Delimiter)])
	default:
		return nil, "", fmt.Errorf("%w: unterminated block", ErrMalformed)
	}

	body = strings.TrimPrefix(body, "\n")

	return block, body, nil
}

// Parse decodes a metadata block into a string-keyed map.
//
// Scalar values come back as string, bool, int, or float64; lists come
// back as []any of scalars. Anything that is not a mapping at the top
// level is rejected with [ErrMalformed].
func Parse(block []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, nil
	}

	var meta map[string]any

	if err := yaml.Unmarshal(block, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if meta == nil {
		return nil, fmt.Errorf("%w: not a mapping", ErrMalformed)
	}

	return normalizeMap(meta), nil
}

// normalizeMap rewrites parsed values into the shapes the writer emits.
// Unquoted dates, which yaml decodes into time.Time, come back as
// fixed-layout strings so they compare and round-trip like every other
// timestamp in the store.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}

	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return TimeString(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}

		return val
	case map[string]any:
		return normalizeMap(val)
	default:
		return v
	}
}

// TimeString renders a timestamp the way the store writes them: the
// fixed-width sortable layout, shortened to the bare date when the value
// carries no time of day.
func TimeString(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}

	return t.Format("2006-01-02 15:04:05")
}

// StringList coerces a parsed metadata value into a []string. Accepts
// []string, []any of scalars, and a single scalar (one-element list).
// Returns nil for nil or unrecognized shapes.
func StringList(v any) []string {
	switch items := v.(type) {
	case nil:
		return nil
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, scalarString(item))
		}

		return out
	default:
		return []string{scalarString(v)}
	}
}

// String coerces a parsed metadata value into a string. Non-string scalars
// render in their YAML form; lists and nil return "".
func String(v any) string {
	switch v.(type) {
	case nil, []any, []string, map[string]any:
		return ""
	default:
		return scalarString(v)
	}
}

// Bool coerces a parsed metadata value into a bool. Accepts bool and the
// strings "true"/"false" (any case). Everything else is false.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return TimeString(s)
	default:
		return fmt.Sprint(v)
	}
}
