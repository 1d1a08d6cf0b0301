package project

import (
	"fmt"
	"sort"
	"strings"
)

// table is one decoded TOML section together with its display name, used to
// read typed values with consistent error messages.
type table struct {
	name   string
	values map[string]any
}

func section(doc map[string]any, name string) (table, error) {
	raw, ok := doc[name]
	if !ok {
		return table{name: "[" + name + "]", values: map[string]any{}}, nil
	}

	values, ok := raw.(map[string]any)
	if !ok {
		return table{}, configErr(
			fmt.Sprintf("Section `[%s]` must be a table.", name),
			fmt.Sprintf("Replace `[%s]` with valid key/value pairs.", name),
		)
	}

	return table{name: "[" + name + "]", values: values}, nil
}

// allow rejects keys not in allowed.
func (t table) allow(allowed ...string) error {
	return allowKeys(t.values, t.name, allowed)
}

func allowKeys(values map[string]any, context string, allowed []string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		set[k] = struct{}{}
	}

	var unknown []string

	for k := range values {
		if _, ok := set[k]; !ok {
			unknown = append(unknown, k)
		}
	}

	if len(unknown) == 0 {
		return nil
	}

	return configErr(
		fmt.Sprintf("Unknown key(s) in %s: %s.", context, quoteList(unknown)),
		"Remove unsupported keys or move them to a supported section.",
	)
}

func (t table) key(k string) string {
	return fmt.Sprintf("`%s.%s`", t.name, k)
}

func (t table) str(k, def string) (string, error) {
	raw, ok := t.values[k]
	if !ok {
		return def, nil
	}

	v, ok := raw.(string)
	if !ok {
		return "", configErr(t.key(k)+" must be a string.", fmt.Sprintf("Set `%s` to a quoted string value.", k))
	}

	return v, nil
}

func (t table) boolean(k string, def bool) (bool, error) {
	raw, ok := t.values[k]
	if !ok {
		return def, nil
	}

	v, ok := raw.(bool)
	if !ok {
		return false, configErr(t.key(k)+" must be a boolean.", fmt.Sprintf("Set `%s` to `true` or `false`.", k))
	}

	return v, nil
}

// integer accepts TOML integers only; go-toml decodes them as int64.
func (t table) integer(k string, def int) (int, error) {
	raw, ok := t.values[k]
	if !ok {
		return def, nil
	}

	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, configErr(t.key(k)+" must be an integer.", fmt.Sprintf("Set `%s` to an integer value.", k))
	}
}

func (t table) strings(k string, def []string) ([]string, error) {
	raw, ok := t.values[k]
	if !ok {
		return append([]string(nil), def...), nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, configErr(
			t.key(k)+" must be an array of strings.",
			fmt.Sprintf("Set `%s` to a TOML array like `[\"a\", \"b\"]`.", k),
		)
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, configErr(t.key(k)+" must only contain strings.", fmt.Sprintf("Use string entries in `%s`.", k))
		}

		out = append(out, s)
	}

	return out, nil
}

// quoteList renders items sorted and deduplicated as "`a`, `b`".
func quoteList(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	var b strings.Builder

	for i, item := range sorted {
		if i > 0 && item == sorted[i-1] {
			continue
		}

		if b.Len() > 0 {
			b.WriteString(", ")
		}

		b.WriteString("`" + item + "`")
	}

	return b.String()
}
