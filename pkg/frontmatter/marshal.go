package frontmatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MarshalOptions configures metadata serialization.
type MarshalOptions struct {
	// PriorityKeys are emitted first, in the order given; remaining keys
	// follow sorted alphabetically. Priority keys absent from the map are
	// skipped.
	PriorityKeys []string
}

// MarshalOption mutates MarshalOptions.
type MarshalOption func(*MarshalOptions)

// WithKeyPriority specifies keys that should appear first in the output.
func WithKeyPriority(keys ...string) MarshalOption {
	return func(opts *MarshalOptions) {
		opts.PriorityKeys = keys
	}
}

// Marshal serializes metadata as a fenced block, deterministic for a given
// map: priority keys first, everything else alphabetical. Scalars render
// inline, string lists render as flow lists ("[a, b]"), nested mappings
// render as indented blocks with sorted keys. Lists of non-scalars are
// rejected.
func Marshal(meta map[string]any, opts ...MarshalOption) (string, error) {
	options := MarshalOptions{}

	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	ordered := make([]string, 0, len(meta))
	seen := make(map[string]bool, len(meta))

	for _, key := range options.PriorityKeys {
		if _, ok := meta[key]; ok && !seen[key] {
			ordered = append(ordered, key)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(meta))

	for key := range meta {
		if !seen[key] {
			rest = append(rest, key)
		}
	}

	sort.Strings(rest)
	ordered = append(ordered, rest...)

	var b strings.Builder

	b.WriteString(Delimiter + "\n")

	for _, key := range ordered {
		if err := writeEntry(&b, 0, key, meta[key]); err != nil {
			return "", err
		}
	}

	b.WriteString(Delimiter + "\n")

	return b.String(), nil
}

// writeEntry emits one "key: value" line at the given indent depth.
// Mapping values recurse as an indented block with alphabetical keys; a
// hand-authored nested block must survive an edit-then-save untouched.
func writeEntry(b *strings.Builder, depth int, key string, v any) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}

	pad := strings.Repeat("  ", depth)

	if nested, ok := v.(map[string]any); ok {
		if len(nested) == 0 {
			b.WriteString(pad + key + ": {}\n")

			return nil
		}

		b.WriteString(pad + key + ":\n")

		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			if err := writeEntry(b, depth+1, k, nested[k]); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
		}

		return nil
	}

	rendered, err := renderValue(v)
	if err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}

	b.WriteString(pad + key + ": " + rendered + "\n")

	return nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrMalformed)
	}

	if strings.ContainsAny(key, " \t:\n\r") {
		return fmt.Errorf("%w: invalid key", ErrMalformed)
	}

	return nil
}

func renderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: nil value", ErrMalformed)
	case string:
		return renderString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case time.Time:
		return renderString(TimeString(val)), nil
	case []string:
		return renderList(val)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = scalarString(item)
		}

		return renderList(items)
	default:
		return "", fmt.Errorf("%w: unsupported value type %T", ErrMalformed, v)
	}
}

func renderList(items []string) (string, error) {
	rendered := make([]string, len(items))

	for i, item := range items {
		if strings.ContainsAny(item, ",[]\n\r") {
			rendered[i] = strconv.Quote(item)

			continue
		}

		rendered[i] = renderString(item)
	}

	return "[" + strings.Join(rendered, ", ") + "]", nil
}

// renderString quotes a string only when the plain form would not survive
// a parse round-trip: empty strings, surrounding whitespace, control
// characters, YAML syntax characters, or values YAML would read back as a
// different scalar type ("true", "42", ...).
func renderString(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}

	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}

	if strings.TrimSpace(s) != s {
		return true
	}

	if strings.ContainsAny(s, "\n\r\t") {
		return true
	}

	if strings.ContainsAny(s, ":#\"'{}[]&*!|>%@`") {
		// ":" only matters when followed by a space or at end, but quoting
		// unconditionally keeps the writer simple and deterministic.
		return true
	}

	var reparsed any
	if err := yaml.Unmarshal([]byte(s), &reparsed); err != nil {
		return true
	}

	str, ok := reparsed.(string)

	return !ok || str != s
}
